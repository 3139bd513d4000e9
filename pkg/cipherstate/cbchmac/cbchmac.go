// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package cbchmac implements the legacy CBC+HMAC composite cipher as a
// single cipher.AEAD-shaped engine, the capability cipherstate.CipherState
// drives for NonceFormat CBC_MODE: MAC-then-encrypt by default, with an
// RFC 7366 encrypt-then-MAC mode selectable per instance.
package cbchmac

import (
	"crypto/cipher"
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"hash"
)

var (
	// ErrShortCiphertext is returned when Open is handed fewer bytes than
	// one block plus a MAC, the smallest input that could ever be valid.
	ErrShortCiphertext = errors.New("cbchmac: ciphertext shorter than one block plus MAC")
	// ErrInvalidMAC covers both a bad MAC and bad padding. The two are
	// folded into one error so the caller cannot distinguish which check
	// failed from the error value alone — only from timing, which
	// examinePadding's constant-time comparison already denies it.
	ErrInvalidMAC = errors.New("cbchmac: invalid MAC or padding")
	// ErrNotBlockAligned is returned when a ciphertext length is not a
	// multiple of the block size.
	ErrNotBlockAligned = errors.New("cbchmac: ciphertext is not block aligned")
)

// HashFunc constructs the hash.Hash a cipher suite's HMAC is built over,
// e.g. sha256.New or sha1.New.
type HashFunc func() hash.Hash

// AEAD is the CBC+HMAC composite engine. It implements cipher.AEAD plus
// the OutputLength/PlaintextLength/MinimumFinalSize methods
// cipherstate.AEAD requires, so a
// *AEAD value can be assigned directly wherever that interface is
// expected without an adapter.
type AEAD struct {
	block cipher.Block
	mac   HashFunc

	writeMACKey, readMACKey []byte

	// EncryptThenMAC selects RFC 7366 ordering: the MAC covers the
	// ciphertext and travels unencrypted after it, rather than covering
	// the plaintext and being encrypted along with it.
	EncryptThenMAC bool
}

// New builds a CBC+HMAC composite engine over block (already keyed for
// the bulk cipher) using mac (already keyed per direction via
// writeMACKey/readMACKey).
func New(block cipher.Block, mac HashFunc, writeMACKey, readMACKey []byte) *AEAD {
	return &AEAD{block: block, mac: mac, writeMACKey: writeMACKey, readMACKey: readMACKey}
}

// NonceSize returns the block size: for CBC_MODE the "nonce" is the
// explicit IV, one block long.
func (a *AEAD) NonceSize() int { return a.block.BlockSize() }

// Overhead returns the most bytes a Seal call can add: one MAC plus a
// full block of padding, which is what Seal adds when plaintext plus MAC
// ends flush with a block boundary. Any other plaintext length gets less
// padding; callers that need an exact figure must use OutputLength, not
// Overhead — Overhead exists only to satisfy cipher.AEAD.
func (a *AEAD) Overhead() int { return a.macSize() + a.block.BlockSize() }

// OutputLength returns the exact ciphertext length produced by sealing n
// plaintext bytes (write path): n rounded up, after appending the MAC,
// to the next block boundary. The read path uses PlaintextLength, not
// this, for its provisional associated-data length.
func (a *AEAD) OutputLength(n int) int {
	withMAC := n + a.macSize()
	blockSize := a.block.BlockSize()

	return ((withMAC / blockSize) + 1) * blockSize
}

// PlaintextLength returns an upper bound on the plaintext length
// contained in an n-byte ciphertext: n with the MAC and one mandatory
// padding byte removed. It is only a bound, not exact — the real
// length depends on the padding byte Open examines after decrypting.
func (a *AEAD) PlaintextLength(n int) int {
	return n - a.macSize() - 1
}

// MinimumFinalSize is the smallest ciphertext this engine will ever
// produce or accept: one block plus one MAC.
func (a *AEAD) MinimumFinalSize() int {
	return a.macSize() + a.block.BlockSize()
}

func (a *AEAD) macSize() int { return a.mac().Size() }

// Seal encrypts plaintext under IV nonce, authenticating it and ad
// together, and appends the result to dst. As in Open, ad's final two
// bytes are replaced with the real length before hashing. The returned slice never
// includes nonce itself — matching every other cipher.AEAD, the caller
// transmits the IV separately (for CBC_MODE, as the record's explicit
// nonce bytes, §4.3 step 4).
func (a *AEAD) Seal(dst, nonce, plaintext, ad []byte) []byte {
	blockSize := a.block.BlockSize()

	if a.EncryptThenMAC {
		padded := padBlock(plaintext, blockSize)
		ciphertext := make([]byte, len(padded))
		cipher.NewCBCEncrypter(a.block, nonce).CryptBlocks(ciphertext, padded)

		tag := a.hmac(a.writeMACKey, adWithLength(ad, len(ciphertext)), ciphertext)

		out := append(dst, ciphertext...) //nolint:makezero
		out = append(out, tag...)

		return out
	}

	tag := a.hmac(a.writeMACKey, adWithLength(ad, len(plaintext)), plaintext)
	payload := padBlock(append(append([]byte{}, plaintext...), tag...), blockSize)

	ciphertext := make([]byte, len(payload))
	cipher.NewCBCEncrypter(a.block, nonce).CryptBlocks(ciphertext, payload)

	return append(dst, ciphertext...) //nolint:makezero
}

// Open authenticates and decrypts ciphertext, which was sealed under IV
// nonce and associated data ad, appending the plaintext to dst.
//
// ad's final two bytes (the length field §4.2's format_ad defines) are a
// provisional value computed before the true plaintext length was known;
// Open overwrites its own copy of those two bytes with the real length
// before hashing.
func (a *AEAD) Open(dst, nonce, ciphertext, ad []byte) ([]byte, error) {
	blockSize := a.block.BlockSize()

	if a.EncryptThenMAC {
		macSize := a.macSize()
		if len(ciphertext) < macSize+blockSize {
			return nil, ErrShortCiphertext
		}

		body, tag := ciphertext[:len(ciphertext)-macSize], ciphertext[len(ciphertext)-macSize:]
		if len(body)%blockSize != 0 {
			return nil, ErrNotBlockAligned
		}

		expected := a.hmac(a.readMACKey, adWithLength(ad, len(body)), body)
		if !hmac.Equal(expected, tag) {
			return nil, ErrInvalidMAC
		}

		plain := make([]byte, len(body))
		cipher.NewCBCDecrypter(a.block, nonce).CryptBlocks(plain, body)

		padLen, good := examinePadding(plain)
		if good != 255 {
			return nil, ErrInvalidMAC
		}

		return append(dst, plain[:len(plain)-padLen]...), nil
	}

	macSize := a.macSize()
	if len(ciphertext) < macSize+blockSize {
		return nil, ErrShortCiphertext
	}

	if len(ciphertext)%blockSize != 0 {
		return nil, ErrNotBlockAligned
	}

	body := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(a.block, nonce).CryptBlocks(body, ciphertext)

	padLen, good := examinePadding(body)
	dataEnd := len(body) - macSize - padLen

	if dataEnd < 0 {
		// Still run the MAC comparison below against a zero-length
		// slice so a short-padding packet and a bad-MAC packet take
		// the same branches; only the final boolean differs.
		dataEnd = 0
		good = 0
	}

	expected := a.hmac(a.readMACKey, adWithLength(ad, dataEnd), body[:dataEnd])
	actual := body[dataEnd : dataEnd+macSize]

	if good != 255 || !hmac.Equal(expected, actual) {
		return nil, ErrInvalidMAC
	}

	return append(dst, body[:dataEnd]...), nil
}

func (a *AEAD) hmac(key, ad, message []byte) []byte {
	h := hmac.New(a.mac, key)
	h.Write(ad)
	h.Write(message)

	return h.Sum(nil)
}

// adWithLength returns a copy of ad with its trailing 2-byte length
// field (format_ad's last field, §4.2) overwritten with length.
func adWithLength(ad []byte, length int) []byte {
	out := append([]byte{}, ad...)
	if len(out) >= 2 {
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(length)) //nolint:gosec
	}

	return out
}

func padBlock(payload []byte, blockSize int) []byte {
	padLen := blockSize - len(payload)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen - 1)
	}

	return append(append([]byte{}, payload...), padding...)
}

// examinePadding returns, in constant time, the length of the padding to
// remove from the end of payload, and a byte equal to 255 if the padding
// was well formed or 0 otherwise. See RFC 2246 §6.2.3.2.
func examinePadding(payload []byte) (toRemove int, good byte) {
	if len(payload) == 0 {
		return 0, 0
	}

	paddingLen := payload[len(payload)-1]
	t := uint(len(payload)-1) - uint(paddingLen)
	good = byte(int32(^t) >> 31)

	toCheck := len(payload)
	if toCheck > 256 {
		toCheck = 256
	}

	for i := 0; i < toCheck; i++ {
		t := uint(paddingLen) - uint(i)
		mask := byte(int32(^t) >> 31)
		b := payload[len(payload)-1-i]
		good &^= mask&paddingLen ^ mask&b
	}

	good &= good << 4
	good &= good << 2
	good &= good << 1
	good = uint8(int8(good) >> 7) //nolint:gosec

	toRemove = int(paddingLen) + 1

	return toRemove, good
}
