// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sequence

import "errors"

// ErrSequenceOverflow is the fatal error TLS discipline raises when the
// 64-bit sequence counter would wrap. §4.1 makes this the caller's
// responsibility to treat as connection-ending.
var ErrSequenceOverflow = errors.New("sequence: counter overflow")
