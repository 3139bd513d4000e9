// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package keyderiv produces labelled key and IV material from a single
// secret, of the shape a CipherState is built from. The record-layer
// tests do not use it; they build their CipherStates from fixed
// zero-filled keys. It derives bytes with HKDF-Expand,
// labelled the way a handshake key schedule would label them, but it
// is not itself a key schedule: callers supply whatever secret they
// like, including a fixed test secret.
package keyderiv

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Expand derives n bytes from secret, bound to label, using
// HKDF-Expand over SHA-256. Two calls with the same secret and label
// always produce the same output; different labels produce
// independent output from the same secret.
func Expand(secret, label []byte, n int) ([]byte, error) {
	out := make([]byte, n)

	r := hkdf.Expand(sha256.New, secret, label)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}

	return out, nil
}

// Keys is one direction pair of key and IV/nonce material, shaped the
// way a CBC or AEAD cipher state needs it.
type Keys struct {
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte
}

// Derive expands secret into a Keys with keyLen-byte keys and
// ivLen-byte IVs, one pair per direction. ivLen may be 0 for cipher
// suites that carry no implicit IV.
func Derive(secret []byte, keyLen, ivLen int) (Keys, error) {
	var keys Keys

	var err error

	keys.ClientWriteKey, err = Expand(secret, []byte("client write key"), keyLen)
	if err != nil {
		return Keys{}, err
	}

	keys.ServerWriteKey, err = Expand(secret, []byte("server write key"), keyLen)
	if err != nil {
		return Keys{}, err
	}

	if ivLen == 0 {
		return keys, nil
	}

	keys.ClientWriteIV, err = Expand(secret, []byte("client write iv"), ivLen)
	if err != nil {
		return Keys{}, err
	}

	keys.ServerWriteIV, err = Expand(secret, []byte("server write iv"), ivLen)
	if err != nil {
		return Keys{}, err
	}

	return keys, nil
}
