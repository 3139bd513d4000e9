// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package record implements the record writer (C3) and reader (C4): the
// two components that turn a (type, payload) message into an on-wire
// record and back, consulting a sequence.Numbers and a cipherstate.CipherState
// along the way.
package record

import (
	"github.com/keppel/tlsrecord/pkg/cipherstate"
	"github.com/keppel/tlsrecord/pkg/protocol"
)

// Message is what upper layers hand the writer: a content type and its
// payload.
type Message struct {
	Type    protocol.ContentType
	Payload []byte
}

// Record is what the reader produces: a fully decoded record, or a
// ContentTypeNoRecord sentinel when the DTLS silent-drop policy
// consumed a malformed or replayed datagram.
type Record struct {
	Type     protocol.ContentType
	Version  protocol.Version
	Sequence uint64
	Payload  []byte
}

// RawInput is the reader's view of whatever byte source is feeding it —
// a TCP stream's receive buffer or one UDP datagram. Advance consumes
// the first n bytes of Data(); a later Data() call reflects the
// remainder.
type RawInput interface {
	Data() []byte
	Remaining() int
	Advance(n int)
	IsDatagram() bool
}

// CipherStateLookup resolves the CipherState installed for a given
// epoch. It must return non-nil for any epoch the handshake has
// actually installed; epoch 0 is never looked up (it is always
// plaintext).
type CipherStateLookup func(epoch uint16) *cipherstate.CipherState
