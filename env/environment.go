// File: env/environment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package env

import "github.com/rs/zerolog"

// Environment carries the per-server explicit state (level, logger)
// that would otherwise be scattered through goroutine-local or package
// globals. It is passed by reference into the reactor, workers, and
// connections.
type Environment struct {
	Logger zerolog.Logger
	Level  Level
}

// New constructs an Environment with a trace logger at the given level.
func New(level Level) *Environment {
	return &Environment{
		Logger: NewLogger(level),
		Level:  level,
	}
}

// Tracef emits a debug-level trace line.
func (e *Environment) Tracef(format string, args ...any) {
	if e == nil {
		return
	}
	if len(args) == 0 {
		e.Logger.Debug().Msg(format)
		return
	}
	e.Logger.Debug().Msgf(format, args...)
}
