// File: env/trace.go
// Package env also owns the trace/log ambient concern: a line-oriented,
// ANSI-colored log written to stderr with thread id, timestamp, a
// DEBG|INFO|WARN|CRIT level tag, and a free-form message.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package env

import (
	"os"

	"github.com/rs/zerolog"
)

// Level is the trace verbosity knob threaded through an Environment.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelCrit
)

func (l Level) zlevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelCrit:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// levelTag renders zerolog's level string as a fixed-width four-letter
// tag for the console line.
func levelTag(level string) string {
	switch level {
	case "debug":
		return "DEBG"
	case "info":
		return "INFO"
	case "warn":
		return "WARN"
	case "error", "fatal", "panic":
		return "CRIT"
	default:
		return "INFO"
	}
}

// tidHook stamps every log event with the OS thread id backing the
// calling goroutine's current thread, for the line's tid= field.
type tidHook struct{}

func (tidHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Int("tid", threadID())
}

// NewLogger builds a zerolog.Logger writing colored, leveled console
// lines to stderr, filtering anything below level.
func NewLogger(level Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	cw.FormatLevel = func(i any) string {
		s, _ := i.(string)
		return levelTag(s)
	}
	return zerolog.New(cw).
		Level(level.zlevel()).
		Hook(tidHook{}).
		With().
		Timestamp().
		Logger()
}
