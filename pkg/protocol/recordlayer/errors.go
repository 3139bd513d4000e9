// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package recordlayer implements the on-wire TLS/DTLS record header.
// https://tools.ietf.org/html/rfc5246#section-6
package recordlayer

import "errors"

var (
	// ErrBufferTooSmall is returned when Unmarshal is handed fewer bytes
	// than the fixed header size for the mode it was told to parse.
	ErrBufferTooSmall = errors.New("recordlayer: buffer is too small")
	// ErrUnsupportedProtocolVersion is the cause the TLS record reader
	// attaches to its protocol_version alert when a record's version
	// bytes name a datagram version. Header.Unmarshal does not return it.
	ErrUnsupportedProtocolVersion = errors.New("recordlayer: unsupported protocol version")

	errSequenceNumberOverflow = errors.New("recordlayer: sequence number overflow")
)
