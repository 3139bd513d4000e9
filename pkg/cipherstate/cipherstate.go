// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package cipherstate

import (
	"encoding/binary"
	"io"

	"github.com/keppel/tlsrecord/pkg/protocol"
)

// NonceFormat names one of the three ways §4.2 defines for turning a
// record's sequence number into the nonce an AEAD (or CBC+HMAC
// composite) is sealed or opened under.
type NonceFormat int

const (
	// CBCMode is the legacy construction: an explicit per-record IV,
	// handshake-provided for the very first record and independently
	// random for every record after.
	CBCMode NonceFormat = iota
	// AEADXOR12 is ChaCha20-Poly1305's construction: a 12-byte
	// handshake-derived implicit nonce XORed with the big-endian
	// sequence number placed in the low 8 bytes.
	AEADXOR12
	// AEADImplicit4 is AES-GCM/CCM's construction: a 4-byte
	// handshake-derived implicit nonce concatenated with the big-endian
	// sequence number.
	AEADImplicit4
)

// CipherState is one direction's worth of cryptographic state for one
// epoch (C2 in the record-layer design, §4.2): the engine doing the
// sealing/opening, the format that engine's nonces follow, and whatever
// handshake-derived nonce material that format needs.
type CipherState struct {
	Format NonceFormat
	AEAD   AEAD

	implicitNonce []byte // AEADXOR12: 12 bytes. AEADImplicit4: 4 bytes.
	explicitNonce []byte // CBCMode only: the handshake-provided first-record IV.

	cbcExplicitConsumed bool
	rand                io.Reader
}

// New builds a CipherState. implicitOrExplicitNonce is interpreted
// according to format:
//
//   - AEADXOR12: the full 12-byte implicit nonce.
//   - AEADImplicit4: the 4-byte implicit nonce.
//   - CBCMode: the handshake-provided explicit IV for the first record
//     (one cipher block long); every later record gets a fresh IV read
//     from rand instead.
//
// rand is only consulted for CBCMode and may be nil otherwise; callers
// normally pass crypto/rand.Reader.
func New(format NonceFormat, aead AEAD, implicitOrExplicitNonce []byte, rand io.Reader) (*CipherState, error) {
	cs := &CipherState{Format: format, AEAD: aead, rand: rand}

	switch format {
	case AEADXOR12:
		if len(implicitOrExplicitNonce) != aead.NonceSize() {
			return nil, ErrInvalidNonceSplit
		}

		cs.implicitNonce = append([]byte{}, implicitOrExplicitNonce...)
	case AEADImplicit4:
		if len(implicitOrExplicitNonce) != 4 {
			return nil, ErrImplicitNonceTooShort
		}

		if len(implicitOrExplicitNonce)+8 != aead.NonceSize() {
			return nil, ErrInvalidNonceSplit
		}

		cs.implicitNonce = append([]byte{}, implicitOrExplicitNonce...)
	case CBCMode:
		cs.explicitNonce = append([]byte{}, implicitOrExplicitNonce...)
	}

	return cs, nil
}

// AEADNonceForWrite returns the nonce the next record should be sealed
// under for sequence number seq, and the bytes (if any) that must be
// transmitted explicitly alongside the ciphertext.
//
// For AEADXOR12 the returned explicit bytes are always empty: every
// byte of the nonce is reconstructible by the peer from the sequence
// number alone. AEADImplicit4 carries the sequence number as an
// explicit 8-byte prefix in the record body, the classic GCM/CCM
// convention — explicit is the nonce's trailing be64(seq) bytes. For
// CBCMode the nonce and the explicit bytes are the same slice too —
// the IV travels on the wire in full.
func (cs *CipherState) AEADNonceForWrite(seq uint64) (nonce, explicit []byte, err error) {
	switch cs.Format {
	case AEADXOR12:
		return xorNonce(cs.implicitNonce, seq), nil, nil
	case AEADImplicit4:
		nonce := implicitNonce4(cs.implicitNonce, seq)
		explicit := nonce[len(nonce)-8:]

		return nonce, explicit, nil
	case CBCMode:
		if !cs.cbcExplicitConsumed {
			cs.cbcExplicitConsumed = true

			return cs.explicitNonce, cs.explicitNonce, nil
		}

		fresh := make([]byte, cs.AEAD.NonceSize())
		if _, err := io.ReadFull(cs.rand, fresh); err != nil {
			return nil, nil, ErrRandomNonceFailed
		}

		return fresh, fresh, nil
	default:
		return nil, nil, ErrInvalidNonceSplit
	}
}

// AEADNonceForRead returns the nonce a record sealed under sequence
// number seq should be opened with, given that record's body. For
// CBCMode and AEADImplicit4 the nonce's per-record bytes travel as an
// explicit prefix in body; the returned rest is body with those bytes
// stripped, and a body too short to contain them is
// ErrRecordTooShortForNonce. For AEADXOR12 the nonce is derived purely
// from seq and rest is body unchanged.
func (cs *CipherState) AEADNonceForRead(seq uint64, body []byte) (nonce, rest []byte, err error) {
	switch cs.Format {
	case AEADXOR12:
		return xorNonce(cs.implicitNonce, seq), body, nil
	case AEADImplicit4:
		if len(body) < 8 {
			return nil, nil, ErrRecordTooShortForNonce
		}

		nonce = make([]byte, 4+8)
		copy(nonce, cs.implicitNonce)
		copy(nonce[4:], body[:8])

		return nonce, body[8:], nil
	case CBCMode:
		size := cs.AEAD.NonceSize()
		if len(body) < size {
			return nil, nil, ErrRecordTooShortForNonce
		}

		return body[:size], body[size:], nil
	default:
		return nil, nil, ErrInvalidNonceSplit
	}
}

func xorNonce(implicit []byte, seq uint64) []byte {
	nonce := make([]byte, len(implicit))
	copy(nonce, implicit)

	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)

	offset := len(nonce) - 8
	for i := 0; i < 8; i++ {
		nonce[offset+i] ^= seqBytes[i]
	}

	return nonce
}

func implicitNonce4(implicit []byte, seq uint64) []byte {
	nonce := make([]byte, 4+8)
	copy(nonce, implicit)
	binary.BigEndian.PutUint64(nonce[4:], seq)

	return nonce
}

// FormatAD builds the 13-byte associated-data block §4.2's format_ad
// produces: the combined sequence number, content type, protocol
// version, and plaintext length, all in the order the wire MAC/AEAD
// input requires. plaintextLen is provisional for CBCMode on the read
// path — the composite engine corrects its own copy once padding has
// been examined; it is exact in every other case.
func FormatAD(seq uint64, typ protocol.ContentType, ver protocol.Version, plaintextLen uint16) [13]byte {
	var ad [13]byte

	binary.BigEndian.PutUint64(ad[0:8], seq)
	ad[8] = byte(typ)
	ad[9] = ver.Major
	ad[10] = ver.Minor
	binary.BigEndian.PutUint16(ad[11:13], plaintextLen)

	return ad
}
