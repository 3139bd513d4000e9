// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package cbchmac

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAEAD(t *testing.T, etm bool) *AEAD {
	t.Helper()

	key := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	macKey := make([]byte, 32)
	_, err = rand.Read(macKey)
	require.NoError(t, err)

	a := New(block, sha256.New, macKey, macKey)
	a.EncryptThenMAC = etm

	return a
}

func TestCBCHMACRoundTrip(t *testing.T) {
	for _, etm := range []bool{false, true} {
		a := newTestAEAD(t, etm)

		nonce := make([]byte, a.NonceSize())
		_, err := rand.Read(nonce)
		require.NoError(t, err)

		ad := []byte{0, 0, 0, 0, 0, 0, 0, 1, 23, 3, 3, 0, 5}
		plaintext := []byte("hello, record layer")

		ciphertext := a.Seal(nil, nonce, plaintext, ad)
		assert.NotEqual(t, plaintext, ciphertext)

		got, err := a.Open(nil, nonce, ciphertext, ad)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestCBCHMACRoundTripEmptyPlaintext(t *testing.T) {
	a := newTestAEAD(t, false)
	nonce := make([]byte, a.NonceSize())

	ad := []byte{0, 0, 0, 0, 0, 0, 0, 0, 23, 3, 3, 0, 0}
	ciphertext := a.Seal(nil, nonce, nil, ad)

	got, err := a.Open(nil, nonce, ciphertext, ad)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCBCHMACDetectsTamperedCiphertext(t *testing.T) {
	for _, etm := range []bool{false, true} {
		a := newTestAEAD(t, etm)
		nonce := make([]byte, a.NonceSize())

		ad := []byte{0, 0, 0, 0, 0, 0, 0, 1, 23, 3, 3, 0, 5}
		ciphertext := a.Seal(nil, nonce, []byte("hello"), ad)
		ciphertext[0] ^= 0xff

		_, err := a.Open(nil, nonce, ciphertext, ad)
		assert.ErrorIs(t, err, ErrInvalidMAC)
	}
}

func TestCBCHMACRejectsShortCiphertext(t *testing.T) {
	a := newTestAEAD(t, false)
	nonce := make([]byte, a.NonceSize())

	_, err := a.Open(nil, nonce, []byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrShortCiphertext)
}

func TestExaminePadding(t *testing.T) {
	payload := append([]byte("hello"), 2, 2, 2)
	toRemove, good := examinePadding(payload)
	assert.Equal(t, byte(255), good)
	assert.Equal(t, 3, toRemove)

	bad := append([]byte("hello"), 2, 9, 2)
	_, good = examinePadding(bad)
	assert.Zero(t, good)
}

func TestOutputLengthMatchesSeal(t *testing.T) {
	a := newTestAEAD(t, false)
	nonce := make([]byte, a.NonceSize())
	ad := []byte{0, 0, 0, 0, 0, 0, 0, 1, 23, 3, 3, 0, 5}

	for n := 0; n < 40; n++ {
		plaintext := make([]byte, n)
		ciphertext := a.Seal(nil, nonce, plaintext, ad)
		assert.Equal(t, a.OutputLength(n), len(ciphertext))
	}
}
