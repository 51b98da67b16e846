// File: connection/connection.go
// Package connection implements the per-connection WebSocket state
// machine (C6): handshake -> upgraded -> closing -> closed, and frame
// -> message reassembly.
//
// The handshake phase is driven by httpparse (C4) rather than
// net/http.ReadRequest, and frame reassembly produces exactly one
// request-queue item per reassembled message rather than per frame.
//
// Conn never touches a socket directly: it is fed raw bytes by the
// reactor and returns bytes to write plus reassembled messages, so it
// can be exercised and tested without any network I/O.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package connection

import (
	"fmt"
	"strings"

	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/httpparse"
	"github.com/momentics/wscore/wsbuf"
	"github.com/momentics/wscore/wsproto"
)

// State is the connection's lifecycle state.
type State int

const (
	StateHTTP State = iota
	StateUpgraded
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHTTP:
		return "http"
	case StateUpgraded:
		return "upgraded"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is a reassembled WebSocket-level message: the concatenation
// of one or more frame payloads beginning with a non-continuation data
// opcode and ending at the first frame with Fin=true.
type Message struct {
	Opcode  wsproto.Opcode
	Payload []byte
}

// FeedResult reports what Feed observed: bytes to write synchronously
// (handshake responses, pong/close echoes), reassembled messages ready
// for the request queue, and whether the reactor should close the
// connection once Outbound has been written.
type FeedResult struct {
	Outbound           [][]byte
	Messages           []*Message
	CloseAfterOutbound bool
	Err                error
}

// Conn is one server-side WebSocket connection. All methods except
// CID/State are intended to be called only from the reactor goroutine
// that owns the underlying socket; a connection is touched on exactly
// one goroutine for its entire lifetime.
type Conn struct {
	CID   uint32
	Env   *env.Environment
	State State

	inbound wsbuf.Buffer
	parser  *httpparse.Parser

	subprotocol  string
	fragments    []*wsproto.Frame
	closeWritten bool
}

// New constructs a Conn in StateHTTP, awaiting the upgrade handshake.
func New(cid uint32, e *env.Environment) *Conn {
	return &Conn{
		CID:    cid,
		Env:    e,
		State:  StateHTTP,
		parser: httpparse.New(httpparse.ModeRequest),
	}
}

// Feed appends newly read bytes to the inbound buffer and drives
// whatever state the connection is currently in.
func (c *Conn) Feed(data []byte) FeedResult {
	c.inbound.Append(data)

	var result FeedResult
	switch c.State {
	case StateHTTP:
		c.runHandshake(&result)
		if c.State != StateUpgraded || result.Err != nil {
			return result
		}
		fallthrough
	case StateUpgraded:
		c.runFrames(&result)
	case StateClosing, StateClosed:
		// Ignore further bytes once closing; reactor should not be
		// feeding a closed connection, but guard defensively.
	}
	return result
}

func (c *Conn) runHandshake(result *FeedResult) {
	consumed, event, err := c.parser.Parse(c.inbound.Bytes())
	if err != nil {
		result.Err = fmt.Errorf("connection: handshake parse: %w", err)
		c.State = StateClosed
		return
	}
	c.inbound.Drain(consumed)

	if event != httpparse.EventMessageComplete {
		return // need more bytes
	}

	if err := c.validateUpgrade(); err != nil {
		result.Err = err
		c.State = StateClosed
		return
	}

	key, _ := c.parser.Header("sec-websocket-key")
	subproto, ok := c.parser.Header("sec-websocket-protocol")
	if !ok || strings.TrimSpace(subproto) == "" {
		subproto = wsproto.DefaultSubprotocol
	} else {
		// Echo only the first offered token, matching a single-protocol server.
		subproto = strings.TrimSpace(strings.Split(subproto, ",")[0])
	}
	c.subprotocol = subproto

	resp := buildSwitchingProtocolsResponse(wsproto.AcceptKey(key), subproto)
	result.Outbound = append(result.Outbound, resp)

	c.parser = nil
	c.State = StateUpgraded
}

func (c *Conn) validateUpgrade() error {
	p := c.parser
	if !strings.EqualFold(p.Method, "GET") {
		return fmt.Errorf("%w: method %q", env.ErrHandshakeBad, p.Method)
	}
	if !headerTokenEquals(p, "upgrade", "websocket") {
		return fmt.Errorf("%w: missing Upgrade: websocket", env.ErrHandshakeBad)
	}
	if !headerContainsToken(p, "connection", "upgrade") {
		return fmt.Errorf("%w: missing Connection: Upgrade", env.ErrHandshakeBad)
	}
	if v, _ := p.Header("sec-websocket-version"); v != wsproto.RequiredVersion {
		return fmt.Errorf("%w: unsupported Sec-WebSocket-Version %q", env.ErrHandshakeBad, v)
	}
	if key, ok := p.Header("sec-websocket-key"); !ok || key == "" {
		return fmt.Errorf("%w: missing Sec-WebSocket-Key", env.ErrHandshakeBad)
	}
	return nil
}

func headerTokenEquals(p *httpparse.Parser, name, want string) bool {
	v, ok := p.Header(name)
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}

func headerContainsToken(p *httpparse.Parser, name, token string) bool {
	v, ok := p.Header(name)
	if !ok {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

func buildSwitchingProtocolsResponse(acceptKey, subprotocol string) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: " + acceptKey + "\r\n")
	b.WriteString("Sec-WebSocket-Version: " + wsproto.RequiredVersion + "\r\n")
	b.WriteString("Sec-WebSocket-Protocol: " + subprotocol + "\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (c *Conn) runFrames(result *FeedResult) {
	for {
		frame, consumed, status, err := wsproto.Decode(c.inbound.Bytes(), wsproto.RoleServer)
		if err != nil {
			result.Err = fmt.Errorf("connection: frame decode: %w", err)
			c.sendCloseLocked(result, wsproto.CloseProtocolError)
			return
		}
		if status == wsproto.Incomplete {
			return
		}
		c.inbound.Drain(consumed)
		c.handleFrame(frame, result)
		if c.State != StateUpgraded {
			return
		}
	}
}

func (c *Conn) handleFrame(frame *wsproto.Frame, result *FeedResult) {
	switch frame.Opcode {
	case wsproto.OpClose:
		// Always reply with the normal-closure status regardless of what
		// the client sent; this is a close acknowledgment, not an echo.
		c.sendCloseLocked(result, wsproto.CloseNormal)

	case wsproto.OpPing:
		pong, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpPong, Payload: frame.Payload}, wsproto.RoleServer)
		if err == nil {
			result.Outbound = append(result.Outbound, pong)
		}

	case wsproto.OpPong:
		// Acknowledged; no reply.

	case wsproto.OpText, wsproto.OpBinary, wsproto.OpContinuation:
		c.fragments = append(c.fragments, frame)
		if frame.Fin {
			result.Messages = append(result.Messages, c.reassemble())
		}
	}
}

func (c *Conn) reassemble() *Message {
	if len(c.fragments) == 0 {
		return &Message{}
	}
	op := c.fragments[0].Opcode
	total := 0
	for _, f := range c.fragments {
		total += len(f.Payload)
	}
	payload := make([]byte, 0, total)
	for _, f := range c.fragments {
		payload = append(payload, f.Payload...)
	}
	c.fragments = nil
	return &Message{Opcode: op, Payload: payload}
}

// sendCloseLocked replies with a Close frame carrying code, and marks
// the connection Closing; the reactor must close the socket once it
// has written result.Outbound, per CloseAfterOutbound.
func (c *Conn) sendCloseLocked(result *FeedResult, code wsproto.CloseCode) {
	if !c.closeWritten {
		frame, err := wsproto.Encode(&wsproto.Frame{
			Fin:     true,
			Opcode:  wsproto.OpClose,
			Payload: wsproto.ClosePayload(code, ""),
		}, wsproto.RoleServer)
		if err == nil {
			result.Outbound = append(result.Outbound, frame)
		}
		c.closeWritten = true
	}
	c.State = StateClosing
	result.CloseAfterOutbound = true
}

// Subprotocol returns the negotiated subprotocol, valid once upgraded.
func (c *Conn) Subprotocol() string { return c.subprotocol }
