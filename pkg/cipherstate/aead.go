// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package cipherstate implements the per-direction, per-epoch cryptographic
// state (C2 in the record-layer design): nonce derivation, associated-data
// framing, and the small capability set any AEAD or CBC+HMAC composite
// engine must expose to be driven by the record writer and reader.
package cipherstate

import "crypto/cipher"

// AEAD is the capability set §6 requires of an injected cipher engine,
// expressed in terms Go's own crypto/cipher already favors: Seal and Open
// fold start(nonce)+set_associated_data(ad)+finish(buf,offset) into one
// call, exactly like every stdlib and x/crypto AEAD already does.
//
// OutputLength, PlaintextLength, and MinimumFinalSize are the three
// operations that don't fall out of cipher.AEAD for free. The source
// this is grounded on (Botan's AEAD_Mode) gives both directions the
// same name, output_length, because each AEAD_Mode instance is already
// direction-specific; since a Go cipher.AEAD serves both directions
// through the same value, OutputLength and PlaintextLength split that
// single overloaded operation into its two directions:
//
//   - OutputLength(n) is the ciphertext length produced by sealing n
//     plaintext bytes (write path, §4.3 step 3). Exact for every engine
//     this package wraps.
//   - PlaintextLength(n) is the plaintext length contained in an n-byte
//     ciphertext (read path, §4.4 step 4). For a true AEAD it is exact:
//     n-Overhead(). For the CBC+HMAC composite it is only an upper
//     bound, because the true plaintext length is not known until the
//     padding byte has been examined — the composite engine corrects
//     its own associated-data copy internally before authenticating.
//   - MinimumFinalSize() is the smallest ciphertext this engine will
//     ever produce; the reader uses it for the pre-decrypt length guard
//     (§4.4 step 3) that rejects undersized records using only public
//     length information, before any secret-dependent branch runs.
type AEAD interface {
	cipher.AEAD

	OutputLength(n int) int
	PlaintextLength(n int) int
	MinimumFinalSize() int
}

// trueAEAD adapts a stdlib/x-crypto cipher.AEAD — one with a fixed,
// data-independent overhead — into the AEAD capability set. This covers
// AES-GCM and ChaCha20-Poly1305, the two nonce formats (AEAD_IMPLICIT_4
// and AEAD_XOR_12) spec §4.2 defines outside of CBC_MODE.
type trueAEAD struct {
	cipher.AEAD
}

// Wrap adapts any fixed-overhead cipher.AEAD (AES-GCM, ChaCha20-Poly1305)
// into the cipherstate AEAD capability set.
func Wrap(a cipher.AEAD) AEAD {
	return trueAEAD{a}
}

func (t trueAEAD) OutputLength(n int) int {
	return n + t.Overhead()
}

func (t trueAEAD) PlaintextLength(n int) int {
	return n - t.Overhead()
}

func (t trueAEAD) MinimumFinalSize() int {
	return t.Overhead()
}
