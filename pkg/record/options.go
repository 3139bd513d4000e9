// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package record

import "github.com/pion/logging"

type options struct {
	loggerFactory logging.LoggerFactory
}

// Option configures a Writer or Reader.
type Option func(*options)

// WithLoggerFactory sets the logger factory Writer and Reader scope
// their loggers from.
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(o *options) {
		o.loggerFactory = factory
	}
}

// WithLogger sets a single logger Writer and Reader log through
// directly, bypassing per-scope factory lookup. Useful when a caller
// already has one logger for the whole connection and has no use for
// per-component scoping.
func WithLogger(log logging.LeveledLogger) Option {
	return func(o *options) {
		o.loggerFactory = fixedLoggerFactory{log}
	}
}

// fixedLoggerFactory adapts a single LeveledLogger into a
// LoggerFactory that hands it out regardless of scope.
type fixedLoggerFactory struct {
	log logging.LeveledLogger
}

func (f fixedLoggerFactory) NewLogger(string) logging.LeveledLogger {
	return f.log
}

func newOptions(opts []Option) *options {
	o := &options{loggerFactory: logging.NewDefaultLoggerFactory()}
	for _, apply := range opts {
		apply(o)
	}

	return o
}
