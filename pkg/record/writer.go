// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import (
	"io"

	"github.com/keppel/tlsrecord/pkg/cipherstate"
	"github.com/keppel/tlsrecord/pkg/protocol"
	"github.com/keppel/tlsrecord/pkg/protocol/recordlayer"
	"github.com/pion/logging"
)

// Writer implements C3: it consumes a Message, a version, a sequence,
// and an optional cipher state, and produces one encoded record. A
// Writer has no mutable state of its own beyond its logger — sequence
// counters and cipher state are owned and advanced by the caller.
type Writer struct {
	log logging.LeveledLogger
}

// NewWriter builds a Writer.
func NewWriter(opts ...Option) *Writer {
	o := newOptions(opts)

	return &Writer{log: o.loggerFactory.NewLogger("record")}
}

// WriteRecord appends one encoded record to dst and returns the
// extended slice. dst is never read past its existing length — callers
// that want a fresh buffer per record should pass dst[:0].
//
// epoch and seq together form the sequence used for nonce derivation
// and the associated-data block; for DTLS they are also written into
// the header's combined epoch||sequence field (§4.3 step 2). cs may be
// nil only for epoch 0 (unencrypted handshake records); rand is
// consulted only when cs's nonce format is CBCMode.
func (w *Writer) WriteRecord(
	dst []byte,
	msg Message,
	version protocol.Version,
	epoch uint16,
	seq uint64,
	cs *cipherstate.CipherState,
	rand io.Reader,
) ([]byte, error) {
	h := recordlayer.Header{
		ContentType: msg.Type,
		Version:     version,
		Epoch:       epoch,
		Sequence:    seq,
	}

	if cs == nil {
		h.ContentLen = uint16(len(msg.Payload)) //nolint:gosec

		headerBytes, err := h.Marshal()
		if err != nil {
			return nil, &protocol.InternalError{Err: err}
		}

		out := append(dst, headerBytes...)
		out = append(out, msg.Payload...)

		return w.checkPostcondition(out, len(msg.Payload), msg.Type, epoch)
	}

	combinedSeq := h.CombinedSequence()

	nonce, explicit, err := cs.AEADNonceForWrite(combinedSeq)
	if err != nil {
		return nil, &protocol.InternalError{Err: err}
	}

	ad := cipherstate.FormatAD(combinedSeq, msg.Type, version, uint16(len(msg.Payload))) //nolint:gosec

	bodyLen := cs.AEAD.OutputLength(len(msg.Payload)) + len(explicit)
	h.ContentLen = uint16(bodyLen) //nolint:gosec

	headerBytes, err := h.Marshal()
	if err != nil {
		return nil, &protocol.InternalError{Err: err}
	}

	out := append(dst, headerBytes...)
	if len(explicit) > 0 {
		out = append(out, explicit...)
	}

	out = cs.AEAD.Seal(out, nonce, msg.Payload, ad[:])

	return w.checkPostcondition(out, bodyLen, msg.Type, epoch)
}

// checkPostcondition enforces §4.3's postcondition: the body (header
// excluded) must stay under MAX_CIPHERTEXT_SIZE. A violation can only
// come from a caller handing the writer a payload larger than
// MAX_PLAINTEXT_SIZE allows, which is always a bug upstream, never
// attacker-controlled input reaching the writer.
func (w *Writer) checkPostcondition(out []byte, bodyLen int, typ protocol.ContentType, epoch uint16) ([]byte, error) {
	if bodyLen >= recordlayer.MaxCiphertextSize {
		w.log.Errorf("record: encoded body of %d bytes exceeds MAX_CIPHERTEXT_SIZE", bodyLen)

		return nil, &protocol.InternalError{Err: errOutputTooLarge}
	}

	w.log.Tracef("record: wrote type %d, epoch %d, len %d", typ, epoch, bodyLen)

	return out, nil
}
