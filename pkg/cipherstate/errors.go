// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package cipherstate

import "errors"

var (
	// ErrInvalidNonceSplit is returned by New when the handshake-derived
	// and per-record nonce byte counts for an AEAD format don't add up to
	// that format's required total nonce size.
	ErrInvalidNonceSplit = errors.New("cipherstate: handshake and record nonce bytes don't sum to the AEAD nonce size")
	// ErrImplicitNonceTooShort is returned by New for AEAD_IMPLICIT_4 when
	// the handshake-derived implicit nonce is not exactly 4 bytes long.
	ErrImplicitNonceTooShort = errors.New("cipherstate: AEAD_IMPLICIT_4 requires a 4-byte implicit nonce")
	// ErrRecordTooShortForNonce is returned by AEADNonceForRead when a
	// record body is too short to contain the per-record nonce bytes its
	// format requires.
	ErrRecordTooShortForNonce = errors.New("cipherstate: record too short to contain its nonce bytes")
	// ErrRandomNonceFailed wraps an error from the entropy source used to
	// mint a fresh CBC explicit IV.
	ErrRandomNonceFailed = errors.New("cipherstate: failed to read random nonce bytes")
)
