// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// ContentType identifies the kind of message carried by a record.
//
// https://tools.ietf.org/html/rfc5246#section-6.2.1
type ContentType uint8

// ContentType enums.
const (
	// ContentTypeNoRecord is an internal sentinel, never seen on the wire.
	// The DTLS reader sets it on a Record to mean "this datagram was
	// silently dropped, call again with the next one."
	ContentTypeNoRecord ContentType = 0

	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
	ContentTypeHeartbeat        ContentType = 24
)

// String implements fmt.Stringer.
func (c ContentType) String() string {
	switch c {
	case ContentTypeNoRecord:
		return "no_record"
	case ContentTypeChangeCipherSpec:
		return "change_cipher_spec"
	case ContentTypeAlert:
		return "alert"
	case ContentTypeHandshake:
		return "handshake"
	case ContentTypeApplicationData:
		return "application_data"
	case ContentTypeHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}
