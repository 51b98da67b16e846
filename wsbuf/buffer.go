// File: wsbuf/buffer.go
// Package wsbuf implements a growable byte buffer with append/drain
// semantics, used as the per-connection inbound byte accumulator ahead
// of the HTTP parser and WebSocket frame decoder.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wsbuf

// Buffer is a growable byte buffer. Capacity grows geometrically by a
// factor of 1.5 on Append. Unlike bytes.Buffer, Drain can remove a
// prefix without discarding the whole buffer, which the connection
// state machine relies on to consume exactly the HTTP bytes an
// upgrade request used while preserving any pipelined WebSocket bytes
// that follow it.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer with no preallocated capacity.
func New() *Buffer {
	return &Buffer{}
}

// NewSize returns an empty Buffer preallocated to at least n bytes.
func NewSize(n int) *Buffer {
	return &Buffer{data: make([]byte, 0, n)}
}

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the current backing capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes returns the buffered bytes. The slice aliases the buffer's
// backing array and is only valid until the next Append or Drain call.
func (b *Buffer) Bytes() []byte { return b.data }

// Reset empties the buffer without releasing its capacity.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// Append appends p to the buffer, growing capacity to
// ceil((len+len(p))*1.5) when the current capacity is insufficient.
func (b *Buffer) Append(p []byte) {
	need := len(b.data) + len(p)
	if need > cap(b.data) {
		newCap := (need*3 + 1) / 2
		grown := make([]byte, len(b.data), newCap)
		copy(grown, b.data)
		b.data = grown
	}
	b.data = append(b.data, p...)
}

// Drain removes the first n bytes. n >= Len() is equivalent to Reset;
// otherwise the remaining tail is shifted left in place, preserving
// capacity.
func (b *Buffer) Drain(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.Reset()
		return
	}
	copy(b.data, b.data[n:])
	b.data = b.data[:len(b.data)-n]
}

// String renders the buffered bytes for debug inspection. Non-printable
// bytes are not escaped; callers inspecting arbitrary binary payloads
// should use Bytes directly.
func (b *Buffer) String() string {
	return string(b.data)
}
