// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import (
	"encoding/binary"
	"errors"

	"github.com/keppel/tlsrecord/pkg/cipherstate"
	"github.com/keppel/tlsrecord/pkg/protocol"
	"github.com/keppel/tlsrecord/pkg/protocol/recordlayer"
	"github.com/keppel/tlsrecord/pkg/sequence"
	"github.com/pion/logging"
)

// Reader implements C4: an incremental parser driven by whatever bytes
// the caller currently has available. It owns a persistent buffer
// across calls (§4.5) and is safe to keep calling for the lifetime of
// one direction of one connection.
//
// A Reader is not safe for concurrent use; §5 makes each direction's
// read path single-threaded by design.
type Reader struct {
	isDatagram bool
	seqNumbers sequence.Numbers
	lookup     CipherStateLookup
	log        logging.LeveledLogger

	buf []byte
}

// NewReader builds a Reader for one direction of one connection.
// seqNumbers may be nil only to read the very first unencrypted record
// server-side, before any SequenceNumbers instance has been installed.
func NewReader(isDatagram bool, seqNumbers sequence.Numbers, lookup CipherStateLookup, opts ...Option) *Reader {
	o := newOptions(opts)

	return &Reader{
		isDatagram: isDatagram,
		seqNumbers: seqNumbers,
		lookup:     lookup,
		log:        o.loggerFactory.NewLogger("record"),
	}
}

func (r *Reader) headerSize() int {
	if r.isDatagram {
		return recordlayer.DTLSHeaderSize
	}

	return recordlayer.TLSHeaderSize
}

// fill appends bytes from input into r.buf until r.buf holds target
// bytes or input is exhausted, consuming whatever it takes from input.
// It returns the number of bytes still needed to reach target — 0 means
// target bytes are already buffered.
func (r *Reader) fill(input RawInput, target int) int {
	if len(r.buf) >= target {
		return 0
	}

	need := target - len(r.buf)

	take := input.Remaining()
	if take > need {
		take = need
	}

	if take > 0 {
		r.buf = append(r.buf, input.Data()[:take]...)
		input.Advance(take)
	}

	return target - len(r.buf)
}

func (r *Reader) drop(out *Record) (int, error) {
	r.log.Debugf("record: dropping datagram")
	r.buf = r.buf[:0]
	*out = Record{Type: protocol.ContentTypeNoRecord}

	return 0, nil
}

func (r *Reader) failTLS(description protocol.AlertDescription, err error) (int, error) {
	r.buf = r.buf[:0]

	return 0, &protocol.AlertError{Description: description, Err: err}
}

// ReadRecord consumes whatever of input it needs and either produces a
// complete Record in out and returns 0, or returns a positive
// "need at least this many more bytes" hint (TLS only — DTLS never asks
// for more than one datagram) with out left unmodified, or returns a
// non-nil error (TLS fatal alert; DTLS calls never surface one, per the
// silent-drop policy in §4.4).
func (r *Reader) ReadRecord(input RawInput, out *Record) (int, error) {
	headerSize := r.headerSize()

	if shortfall := r.fill(input, headerSize); shortfall > 0 {
		if r.isDatagram {
			return r.drop(out)
		}

		return shortfall, nil
	}

	version := protocol.Version{Major: r.buf[1], Minor: r.buf[2]}

	if r.isDatagram && !version.IsDatagram() {
		return r.drop(out)
	}

	if !r.isDatagram && version.IsDatagram() {
		return r.failTLS(protocol.AlertProtocolVersion, recordlayer.ErrUnsupportedProtocolVersion)
	}

	recordSize := binary.BigEndian.Uint16(r.buf[headerSize-2 : headerSize])

	switch {
	case recordSize > recordlayer.MaxCiphertextSize:
		if r.isDatagram {
			return r.drop(out)
		}

		return r.failTLS(protocol.AlertRecordOverflow, errOutputTooLarge)
	case recordSize == 0:
		if r.isDatagram {
			return r.drop(out)
		}

		return r.failTLS(protocol.AlertDecodeError, errZeroLengthRecord)
	}

	total := headerSize + int(recordSize)

	if shortfall := r.fill(input, total); shortfall > 0 {
		if r.isDatagram {
			return r.drop(out)
		}

		return shortfall, nil
	}

	typ := protocol.ContentType(r.buf[0])

	var seq uint64

	var epoch uint16

	if r.isDatagram {
		seq = binary.BigEndian.Uint64(r.buf[3:11])
		epoch = uint16(seq >> 48) //nolint:gosec

		if r.seqNumbers != nil && r.seqNumbers.AlreadySeen(seq) {
			return r.drop(out)
		}
	} else if r.seqNumbers != nil {
		next, err := r.seqNumbers.NextReadSequence()
		if err != nil {
			r.buf = r.buf[:0]

			return 0, &protocol.FatalError{Err: err}
		}

		seq = next
		epoch = r.seqNumbers.CurrentReadEpoch()
	}

	body := r.buf[headerSize:total]

	if epoch == 0 {
		payload := append([]byte{}, body...) //nolint:gocritic

		*out = Record{Type: typ, Version: version, Sequence: seq, Payload: payload}
		r.buf = r.buf[:0]

		if r.seqNumbers != nil {
			r.seqNumbers.ReadAccept(seq)
		}

		r.log.Tracef("record: read type %d, epoch %d, len %d", typ, epoch, len(payload))

		return 0, nil
	}

	cs := r.lookup(epoch)
	if cs == nil {
		r.buf = r.buf[:0]

		if r.isDatagram {
			r.log.Debugf("record: no cipher state for epoch %d, dropping", epoch)
			*out = Record{Type: protocol.ContentTypeNoRecord}

			return 0, nil
		}

		return 0, &protocol.InternalError{Err: errNoCipherStateForEpoch}
	}

	plaintext, err := r.decrypt(cs, body, seq, version, typ)
	if err != nil {
		r.buf = r.buf[:0]

		if r.isDatagram {
			r.log.Debugf("record: dropping unauthenticated datagram: %s", err)
			*out = Record{Type: protocol.ContentTypeNoRecord}

			return 0, nil
		}

		// aead_nonce_for_read failing because the record is too short to
		// even contain its explicit nonce bytes is a malformed-header
		// condition (§4.2), not a failed authentication — it gets
		// decode_error rather than bad_record_mac.
		if errors.Is(err, cipherstate.ErrRecordTooShortForNonce) {
			return 0, &protocol.AlertError{Description: protocol.AlertDecodeError, Err: err}
		}

		return 0, &protocol.AlertError{Description: protocol.AlertBadRecordMAC, Err: err}
	}

	*out = Record{Type: typ, Version: version, Sequence: seq, Payload: plaintext}
	r.buf = r.buf[:0]

	if r.seqNumbers != nil {
		r.seqNumbers.ReadAccept(seq)
	}

	r.log.Tracef("record: read type %d, epoch %d, len %d", typ, epoch, len(plaintext))

	return 0, nil
}

// decrypt implements the decryption contract in §4.4: derive the nonce,
// split off any explicit nonce bytes carried in body, guard the length
// using only public information, build the associated-data block, and
// authenticate-and-decrypt.
func (r *Reader) decrypt(cs *cipherstate.CipherState, body []byte, seq uint64, version protocol.Version, typ protocol.ContentType) ([]byte, error) {
	nonce, msg, err := cs.AEADNonceForRead(seq, body)
	if err != nil {
		return nil, err
	}

	if len(msg) < cs.AEAD.MinimumFinalSize() {
		return nil, errRecordTooShort
	}

	plaintextLen := cs.AEAD.PlaintextLength(len(msg))
	if plaintextLen < 0 {
		plaintextLen = 0
	}

	ad := cipherstate.FormatAD(seq, typ, version, uint16(plaintextLen)) //nolint:gosec

	return cs.AEAD.Open(nil, nonce, msg, ad[:])
}
