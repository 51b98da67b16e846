// File: env/errors.go
// Package env provides the explicit runtime environment (level, logger,
// error classification) passed by reference through the server instead
// of living in per-thread globals.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package env

import "errors"

// Kind classifies the recoverability of an error.
type Kind int

const (
	KindSuccess Kind = iota
	KindTimeout
	KindWarn
	KindSocket
	KindSys
	KindProtocol
	KindMem
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimeout:
		return "timeout"
	case KindWarn:
		return "warn"
	case KindSocket:
		return "socket"
	case KindSys:
		return "sys"
	case KindProtocol:
		return "protocol"
	case KindMem:
		return "mem"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on
// recoverability without string matching.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds a Kind-tagged error.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; returns KindFatal for untagged errors, treating unrecognized
// failures as the worst case.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// Sentinel errors used across the module for simple comparisons.
var (
	ErrPoolFull       = errors.New("slot pool exhausted")
	ErrConnGone       = errors.New("connection no longer registered")
	ErrQueueHalting   = errors.New("queue is halting")
	ErrParserPaused   = errors.New("http parser is paused; call Reset before continuing")
	ErrHandshakeBad   = errors.New("invalid websocket upgrade request")
	ErrFrameMasking   = errors.New("frame masking policy violation")
	ErrFrameTooLarge  = errors.New("frame payload exceeds maximum allowed size")
	ErrFrameTruncated = errors.New("frame truncated")
	ErrBadMessageWire = errors.New("malformed top-level message shape")
)
