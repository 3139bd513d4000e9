// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import "errors"

var (
	errNoCipherStateForEpoch = errors.New("record: no cipher state installed for epoch")
	errZeroLengthRecord      = errors.New("record: header declares a zero-length record")
	errOutputTooLarge        = errors.New("record: encoded record exceeds MAX_CIPHERTEXT_SIZE")
	errRecordTooShort        = errors.New("record: record body is shorter than the cipher's minimum ciphertext size")
)
