// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import (
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
)

func TestWithLoggerUsesTheSameLoggerForEveryScope(t *testing.T) {
	factory := logging.NewDefaultLoggerFactory()
	log := factory.NewLogger("fixed")

	o := newOptions([]Option{WithLogger(log)})

	assert.Same(t, log, o.loggerFactory.NewLogger("record"))
	assert.Same(t, log, o.loggerFactory.NewLogger("anything-else"))
}
