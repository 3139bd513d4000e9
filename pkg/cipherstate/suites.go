// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package cipherstate

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"
)

// NewAESGCM builds the AEAD_IMPLICIT_4 engine AES-GCM cipher suites use:
// the same cipher.NewGCM(aes.NewCipher(key)) pair driven through
// cipher.AEAD directly. True AES-CCM is out of scope here; CCM shares
// AEAD_IMPLICIT_4's nonce construction with GCM, so GCM alone exercises
// that code path.
func NewAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// NewChaCha20Poly1305 builds the AEAD_XOR_12 engine, grounded in the
// teacher's pkg/crypto/ciphersuite/chacha20poly1305.go, which wraps
// exactly this constructor from the same dependency.
func NewChaCha20Poly1305(key []byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(key)
}
