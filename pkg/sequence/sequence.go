// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package sequence implements C1 from the record-layer design: the
// per-direction read-sequence bookkeeping the record reader consults
// before accepting a record, and the DTLS replay window that rides
// along with it.
package sequence

import "github.com/pion/transport/v3/replaydetector"

// maxSequenceNumber is the width of the 48-bit sequence space DTLS's
// replay window lives in. TLS's monotonic counter uses the full 64 bits.
const maxSequenceNumber = 0x0000ffffffffffff

// Numbers is the capability §4.1 requires of a direction's sequence
// bookkeeping. TLS and DTLS give it different disciplines: TLS assigns
// the sequence itself and enforces strict monotonicity; DTLS reads the
// sequence off the wire and only tracks which ones it has already
// accepted within a sliding window.
//
// NextReadSequence returns an error instead of silently saturating, so
// the 2^64 TLS overflow §4.1 calls out stays an explicit, checkable
// condition rather than a wraparound a caller could miss.
type Numbers interface {
	NextReadSequence() (uint64, error)
	ReadAccept(seq uint64)
	CurrentReadEpoch() uint16
	AlreadySeen(seq uint64) bool
}

// TLS implements Numbers with a strictly monotonic counter. The zero
// value is ready to use and starts at sequence 0 in epoch 0.
type TLS struct {
	last        uint64
	initialized bool
	epoch       uint16
}

var _ Numbers = (*TLS)(nil)

// NextReadSequence returns last+1, or 0 if no record has been accepted
// yet. It returns ErrSequenceOverflow instead of wrapping past 2^64-1.
func (t *TLS) NextReadSequence() (uint64, error) {
	if !t.initialized {
		return 0, nil
	}

	if t.last == ^uint64(0) {
		return 0, ErrSequenceOverflow
	}

	return t.last + 1, nil
}

// ReadAccept advances the counter to seq.
func (t *TLS) ReadAccept(seq uint64) {
	t.last = seq
	t.initialized = true
}

// CurrentReadEpoch returns the epoch most recently installed by
// AdvanceEpoch, or 0 before the first key change.
func (t *TLS) CurrentReadEpoch() uint16 { return t.epoch }

// AdvanceEpoch moves to a new epoch after a key change, resetting the
// sequence counter: every epoch's sequence numbers start fresh at 0.
func (t *TLS) AdvanceEpoch(epoch uint16) {
	t.epoch = epoch
	t.last = 0
	t.initialized = false
}

// AlreadySeen always returns false: TLS enforces monotonicity instead
// of tracking a replay window.
func (t *TLS) AlreadySeen(uint64) bool { return false }

// epochWindow is one epoch's replay-detection state: a sliding window
// over that epoch's own 48-bit sequence space, plus the accept
// closures AlreadySeen has handed out but ReadAccept hasn't yet run.
type epochWindow struct {
	detector     replaydetector.ReplayDetector
	pending      map[uint64]func() bool
	lastAccepted uint64
}

func newEpochWindow(windowSize uint) *epochWindow {
	return &epochWindow{
		detector: replaydetector.New(windowSize, maxSequenceNumber),
		pending:  make(map[uint64]func() bool),
	}
}

// DTLS implements Numbers with a sliding replay window over the 48-bit
// sequence space, keyed to the epoch a record actually belongs to.
// Two windows are live at any time — the current epoch's and the
// immediately preceding one's — so that a record legitimately
// retransmitted or reordered from the just-superseded epoch is still
// checked against its own epoch's history instead of aliasing into
// the new epoch's freshly started one. AdvanceEpoch must be called
// whenever the handshake module installs a new epoch's cipher state.
type DTLS struct {
	windowSize uint

	epoch   uint16
	current *epochWindow

	previousEpoch uint16
	previous      *epochWindow
}

var _ Numbers = (*DTLS)(nil)

// NewDTLS builds a DTLS sequence tracker for epoch 0 with the given
// replay window size. §4.1 requires a window of at least 64.
func NewDTLS(windowSize uint) *DTLS {
	return &DTLS{windowSize: windowSize, current: newEpochWindow(windowSize)}
}

// AdvanceEpoch moves the tracker to epoch, retaining the window for
// the epoch it was previously on (so records still in flight for that
// epoch are tracked correctly) and starting a fresh window for epoch.
func (d *DTLS) AdvanceEpoch(epoch uint16) {
	d.previousEpoch = d.epoch
	d.previous = d.current

	d.epoch = epoch
	d.current = newEpochWindow(d.windowSize)
}

// CurrentReadEpoch returns the epoch this tracker's current window
// belongs to.
func (d *DTLS) CurrentReadEpoch() uint16 { return d.epoch }

// NextReadSequence is unused by the DTLS reader path — DTLS reads its
// sequence number directly off the wire (§4.4) rather than having one
// assigned — but is implemented to satisfy Numbers uniformly; it
// reports one past the highest sequence accepted so far in the current
// epoch.
func (d *DTLS) NextReadSequence() (uint64, error) {
	return (uint64(d.epoch) << 48) | (d.current.lastAccepted + 1), nil
}

// windowFor returns the window tracking epoch, or nil if epoch is
// neither the current nor the immediately preceding one — the caller
// must treat a nil result as an unrecognized epoch and drop.
func (d *DTLS) windowFor(epoch uint16) *epochWindow {
	switch {
	case epoch == d.epoch:
		return d.current
	case d.previous != nil && epoch == d.previousEpoch:
		return d.previous
	default:
		return nil
	}
}

// AlreadySeen reports whether seq — whose top 16 bits name the epoch
// it belongs to and whose low 48 bits are the significant sequence
// value, per §4.1 — lies below that epoch's window floor, is already
// marked accepted within it, or names an epoch this tracker isn't
// currently tracking at all. A true result means the caller must
// silently drop the record without consulting ReadAccept.
func (d *DTLS) AlreadySeen(seq uint64) bool {
	w := d.windowFor(uint16(seq >> 48)) //nolint:gosec
	if w == nil {
		return true
	}

	accept, ok := w.detector.Check(seq & maxSequenceNumber)
	if !ok {
		return true
	}

	w.pending[seq] = accept

	return false
}

// ReadAccept marks seq as durably received within its epoch's window,
// sliding that window forward if seq is now the highest sequence seen
// there. After a prior AlreadySeen(seq) returned false it commits that
// check; without one, it checks and marks seq directly. A seq in an
// untracked epoch, or one the window already rejects, is ignored.
func (d *DTLS) ReadAccept(seq uint64) {
	w := d.windowFor(uint16(seq >> 48)) //nolint:gosec
	if w == nil {
		return
	}

	if accept, ok := w.pending[seq]; ok {
		accept()
		delete(w.pending, seq)
	} else if accept, ok := w.detector.Check(seq & maxSequenceNumber); ok {
		accept()
	}

	if masked := seq & maxSequenceNumber; masked > w.lastAccepted {
		w.lastAccepted = masked
	}
}
