// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package protocol provides the wire-format types shared by the TLS and
// DTLS record layers.
package protocol

// Version is the major/minor pair carried in every record header.
//
// https://tools.ietf.org/html/rfc5246#section-6.2.1
type Version struct {
	Major, Minor uint8
}

// Version enums. DTLS uses the inverted-minor convention: the wire bytes
// decrease as the protocol advances, so DTLS 1.2 reads {0xfe, 0xfd}.
var ( //nolint:gochecknoglobals
	VersionTLS10 = Version{Major: 3, Minor: 1}
	VersionTLS11 = Version{Major: 3, Minor: 2}
	VersionTLS12 = Version{Major: 3, Minor: 3}

	VersionDTLS10 = Version{Major: 0xfe, Minor: 0xff}
	VersionDTLS12 = Version{Major: 0xfe, Minor: 0xfd}
)

// Equal determines if two protocol versions are equal.
func (v Version) Equal(x Version) bool {
	return v.Major == x.Major && v.Minor == x.Minor
}

// IsDatagram is true exactly when major == 254, the DTLS family marker.
// The record layer uses this, not a parsed enum, to decide TLS vs DTLS
// framing, per the wire convention DTLS inherited from SSLv3's reserved
// major-version range.
func (v Version) IsDatagram() bool {
	return v.Major == 254
}

// IsSupportedTLS reports whether v is a TLS stream version this record
// layer accepts, RFC 5246's (3,1) through (3,3).
func IsSupportedTLS(v Version) bool {
	return !v.IsDatagram() && v.Major == 3 && v.Minor >= 1 && v.Minor <= 3
}

// IsSupportedDTLS reports whether v is a DTLS datagram version this
// record layer accepts: (254,255) for 1.0 down to (254,253) for 1.2.
func IsSupportedDTLS(v Version) bool {
	return v.IsDatagram() && v.Minor <= 255 && v.Minor >= 253
}
