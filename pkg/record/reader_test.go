// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import (
	"encoding/binary"
	"testing"

	"github.com/keppel/tlsrecord/pkg/cipherstate"
	"github.com/keppel/tlsrecord/pkg/protocol"
	"github.com/keppel/tlsrecord/pkg/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceInput struct {
	data     []byte
	datagram bool
}

func (s *sliceInput) Data() []byte     { return s.data }
func (s *sliceInput) Remaining() int   { return len(s.data) }
func (s *sliceInput) Advance(n int)    { s.data = s.data[n:] }
func (s *sliceInput) IsDatagram() bool { return s.datagram }

// TestReadRecordTLSPlaintext covers S1: a plaintext handshake record
// delivered in one call.
func TestReadRecordTLSPlaintext(t *testing.T) {
	r := NewReader(false, nil, nil)
	input := &sliceInput{data: []byte{0x16, 0x03, 0x03, 0x00, 0x04, 0x01, 0x02, 0x03, 0x04}}

	var rec Record

	n, err := r.ReadRecord(input, &rec)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, protocol.ContentTypeHandshake, rec.Type)
	assert.Equal(t, protocol.VersionTLS12, rec.Version)
	assert.Equal(t, []byte{1, 2, 3, 4}, rec.Payload)
}

// TestReadRecordTLSIncremental covers S2: the same record delivered in
// chunks of length 3, 1, 5.
func TestReadRecordTLSIncremental(t *testing.T) {
	full := []byte{0x16, 0x03, 0x03, 0x00, 0x04, 0x01, 0x02, 0x03, 0x04}
	chunks := [][]byte{full[0:3], full[3:4], full[4:9]}

	r := NewReader(false, nil, nil)

	var rec Record

	var n int

	var err error

	for i, c := range chunks {
		n, err = r.ReadRecord(&sliceInput{data: c}, &rec)
		require.NoError(t, err)

		if i < len(chunks)-1 {
			assert.Positive(t, n)
		}
	}

	assert.Equal(t, 0, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, rec.Payload)
}

// TestReadRecordOverflow covers S3.
func TestReadRecordOverflow(t *testing.T) {
	r := NewReader(false, nil, nil)
	input := &sliceInput{data: []byte{0x17, 0x03, 0x03, 0xff, 0xff}}

	var rec Record

	_, err := r.ReadRecord(input, &rec)

	var alertErr *protocol.AlertError

	require.ErrorAs(t, err, &alertErr)
	assert.Equal(t, protocol.AlertRecordOverflow, alertErr.Description)
}

// TestReadRecordZeroLength covers S4.
func TestReadRecordZeroLength(t *testing.T) {
	r := NewReader(false, nil, nil)
	input := &sliceInput{data: []byte{0x17, 0x03, 0x03, 0x00, 0x00}}

	var rec Record

	_, err := r.ReadRecord(input, &rec)

	var alertErr *protocol.AlertError

	require.ErrorAs(t, err, &alertErr)
	assert.Equal(t, protocol.AlertDecodeError, alertErr.Description)
}

// TestReadRecordTLSStreamVersionInDatagramMode covers the DTLS-side
// half of §4.4 step 2: a stream version arriving at a DTLS reader is a
// silent drop, not an error.
func TestReadRecordTLSStreamVersionInDatagramMode(t *testing.T) {
	r := NewReader(true, nil, nil)
	// A full 13-byte DTLS-sized header, so the drop comes from the version
	// check and not from a short header.
	input := &sliceInput{
		data: []byte{
			0x16, 0x03, 0x03, 0, 0, 0, 0, 0, 0, 0, 0, 0x00, 0x04,
			0x01, 0x02, 0x03, 0x04,
		},
		datagram: true,
	}

	var rec Record

	n, err := r.ReadRecord(input, &rec)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, protocol.ContentTypeNoRecord, rec.Type)
}

// TestReadRecordDatagramVersionInStreamMode covers the TLS-side half:
// a datagram version arriving at a TLS reader is a fatal alert.
func TestReadRecordDatagramVersionInStreamMode(t *testing.T) {
	r := NewReader(false, nil, nil)
	input := &sliceInput{data: []byte{0x16, 0xfe, 0xfd, 0x00, 0x04, 0x01, 0x02, 0x03, 0x04}}

	var rec Record

	_, err := r.ReadRecord(input, &rec)

	var alertErr *protocol.AlertError

	require.ErrorAs(t, err, &alertErr)
	assert.Equal(t, protocol.AlertProtocolVersion, alertErr.Description)
}

func dtlsHeader(typ protocol.ContentType, seq uint64, bodyLen uint16) []byte {
	h := make([]byte, 13)
	h[0] = byte(typ)
	h[1], h[2] = protocol.VersionDTLS12.Major, protocol.VersionDTLS12.Minor
	binary.BigEndian.PutUint64(h[3:11], seq)
	binary.BigEndian.PutUint16(h[11:13], bodyLen)

	return h
}

// TestReadRecordDTLSReplay covers S5.
func TestReadRecordDTLSReplay(t *testing.T) {
	seqNumbers := sequence.NewDTLS(64)
	seqNumbers.AdvanceEpoch(1)

	combined := uint64(1)<<48 | 5
	assert.False(t, seqNumbers.AlreadySeen(combined))
	seqNumbers.ReadAccept(combined)

	r := NewReader(true, seqNumbers, func(uint16) *cipherstate.CipherState { return nil })

	body := append(dtlsHeader(protocol.ContentTypeApplicationData, combined, 4), 0, 0, 0, 0)

	var rec Record

	n, err := r.ReadRecord(&sliceInput{data: body, datagram: true}, &rec)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, protocol.ContentTypeNoRecord, rec.Type)
}

// TestReadRecordDTLSUnknownEpochDrops exercises the Open Question §9
// flags: an unknown epoch must be a silent drop in DTLS, never a crash.
func TestReadRecordDTLSUnknownEpochDrops(t *testing.T) {
	seqNumbers := sequence.NewDTLS(64)

	r := NewReader(true, seqNumbers, func(uint16) *cipherstate.CipherState { return nil })

	combined := uint64(3)<<48 | 1
	body := append(dtlsHeader(protocol.ContentTypeApplicationData, combined, 4), 0, 0, 0, 0)

	var rec Record

	n, err := r.ReadRecord(&sliceInput{data: body, datagram: true}, &rec)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, protocol.ContentTypeNoRecord, rec.Type)
}
