// File: workitem/types.go
// Package workitem defines the work-item and processor types shared
// across the reactor (C7), worker pool (C8), server façade (C9) and
// messaging adapter (C10), kept in their own package specifically so
// that reactor and worker do not need to import wsserver (which itself
// composes reactor and worker) -- avoiding an import cycle while still
// letting every layer speak the same request/response vocabulary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package workitem

import (
	"github.com/momentics/wscore/connection"
	"github.com/momentics/wscore/wsproto"
)

// Message is the reassembled WebSocket-level message type shared
// across the reactor, worker pool and processors.
type Message = connection.Message

// RequestItem is what the reactor pushes onto the request queue after
// reassembling one complete message for a connection.
type RequestItem struct {
	CID uint32
	Msg *Message
}

// ResponseFlags tags a ResponseItem with reactor-side instructions.
type ResponseFlags uint8

// FlagClose tells the reactor to close the connection once this item's
// Data (if any) has been written, rather than just writing bytes.
const FlagClose ResponseFlags = 1 << 0

// ResponseItem is what a worker pushes onto the response queue: raw
// bytes to write to the connection identified by CID, or a bare close
// instruction.
type ResponseItem struct {
	CID   uint32
	Data  []byte
	Flags ResponseFlags
}

// Processor is the application-level callback the worker pool invokes
// for each reassembled inbound message. A nil reply means "no
// response"; a non-nil error closes the connection (status 1011
// unless the error is a *CloseError requesting a different code).
type Processor interface {
	Process(cid uint32, msg *Message) (*Message, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(cid uint32, msg *Message) (*Message, error)

func (f ProcessorFunc) Process(cid uint32, msg *Message) (*Message, error) {
	return f(cid, msg)
}

// ConnectHook and DisconnectHook are optional user-level lifecycle
// callbacks invoked by the reactor on accept/close.
type ConnectHook func(cid uint32)
type DisconnectHook func(cid uint32)

// CloseError lets a Processor pick the WebSocket close status the
// worker pool sends when it closes a connection following an error,
// instead of always falling back to 1011 (internal error). Adapters
// (e.g. msgadapter's policy-violation detection) wrap their sentinel
// errors in a CloseError to request 1008 instead.
type CloseError struct {
	Code wsproto.CloseCode
	Err  error
}

func (e *CloseError) Error() string { return e.Err.Error() }
func (e *CloseError) Unwrap() error { return e.Err }

// NewCloseError wraps err so the worker pool closes with code instead
// of the default internal-error status.
func NewCloseError(code wsproto.CloseCode, err error) error {
	return &CloseError{Code: code, Err: err}
}
