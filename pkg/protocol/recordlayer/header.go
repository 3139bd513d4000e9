// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import (
	"encoding/binary"

	"github.com/keppel/tlsrecord/pkg/protocol"
)

// Header sizes, in bytes, for the two record-layer framings this package
// knows: TLS's type/version/length prologue, and DTLS's, which inserts an
// 8-byte sequence field (epoch in its high 16 bits, sequence number in its
// low 48) between version and length.
const (
	TLSHeaderSize  = 5
	DTLSHeaderSize = 13

	// MaxCiphertextSize bounds the body a record header's length field may
	// declare, independent of framing.
	MaxCiphertextSize = (1 << 14) + 2048

	maxSequenceNumber = 0x0000ffffffffffff // 48 bits
)

// Header is the parsed form of a record's fixed-size prologue. ContentLen
// is the body length that follows the header on the wire; it does not
// include the header itself.
type Header struct {
	ContentType protocol.ContentType
	Version     protocol.Version
	Epoch       uint16
	Sequence    uint64 // low 48 bits significant
	ContentLen  uint16
}

// Size returns the number of header bytes this Header's Version implies:
// TLSHeaderSize for a stream version, DTLSHeaderSize for a datagram one.
func (h *Header) Size() int {
	if h.Version.IsDatagram() {
		return DTLSHeaderSize
	}

	return TLSHeaderSize
}

// Marshal encodes the header. For a datagram Version it writes the
// combined epoch||sequence field; for a stream Version it writes neither,
// matching the wire formats in spec §6.
func (h *Header) Marshal() ([]byte, error) {
	if h.Sequence > maxSequenceNumber {
		return nil, errSequenceNumberOverflow
	}

	out := make([]byte, h.Size())
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor

	if h.Version.IsDatagram() {
		binary.BigEndian.PutUint64(out[3:11], (uint64(h.Epoch)<<48)|(h.Sequence&maxSequenceNumber))
	}

	binary.BigEndian.PutUint16(out[h.Size()-2:], h.ContentLen)

	return out, nil
}

// Unmarshal parses a header out of data, which must be at least
// DTLSHeaderSize bytes if the version bytes name a datagram version, or
// TLSHeaderSize otherwise. Callers that already know which framing to
// expect (the reader always does, per §4.5) should check data's length
// against the constant they expect before calling this; Unmarshal only
// re-derives the framing from the version bytes to decide how much of
// data to consume.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < 3 {
		return ErrBufferTooSmall
	}

	h.ContentType = protocol.ContentType(data[0])
	h.Version = protocol.Version{Major: data[1], Minor: data[2]}

	size := h.Size()
	if len(data) < size {
		return ErrBufferTooSmall
	}

	if h.Version.IsDatagram() {
		combined := binary.BigEndian.Uint64(data[3:11])
		h.Epoch = uint16(combined >> 48) //nolint:gosec
		h.Sequence = combined & maxSequenceNumber
	} else {
		h.Epoch = 0
		h.Sequence = 0
	}

	h.ContentLen = binary.BigEndian.Uint16(data[size-2 : size])

	return nil
}

// CombinedSequence returns the value §4.2/§4.4 feed to nonce derivation
// and FormatAD: the pure monotonic counter in TLS, or the on-wire
// epoch||sequence field in DTLS.
func (h *Header) CombinedSequence() uint64 {
	if h.Version.IsDatagram() {
		return (uint64(h.Epoch) << 48) | (h.Sequence & maxSequenceNumber)
	}

	return h.Sequence
}
