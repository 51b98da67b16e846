// File: httpparse/parser.go
// Package httpparse implements the incremental, pauseable HTTP/1.1
// request/response parser (C4) that drives the connection state
// machine's handshake phase.
//
// Parse is a tagged-event step function -- it returns
// {bytesConsumed, event} -- rather than a callback API, so the parser
// can be driven byte-range by byte-range as bytes arrive instead of
// blocking on a full request.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package httpparse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/momentics/wscore/wsbuf"
)

// Mode selects request-line or status-line parsing for the start line.
type Mode int

const (
	ModeRequest Mode = iota
	ModeResponse
)

// Event tags what Parse just observed.
type Event int

const (
	EventNone Event = iota
	EventHeadersComplete
	EventMessageComplete
)

// MaxHeaderBytes bounds the total size of header names+values accepted
// before a parse error is raised, guarding against unbounded buffering.
const MaxHeaderBytes = 8192

type parseState int

const (
	stateStartLine parseState = iota
	stateHeaders
	stateBody
	stateDone
)

// Parser incrementally parses one HTTP/1.1 message. Headers are stored
// lower-cased on insertion. Once Parse reports EventMessageComplete the
// parser is Done and must be Reset before parsing another message.
type Parser struct {
	mode Mode

	state       parseState
	scratchLine wsbuf.Buffer
	headerBytes int

	// Request start line.
	Method  string
	URL     string
	Version string

	// Response start line.
	StatusCode int
	Reason     string

	Headers     map[string]string
	HeaderOrder []string

	body          wsbuf.Buffer
	contentLength int
	bodyRead      int

	headersComplete bool
	done            bool
}

// New constructs a Parser in the given mode.
func New(mode Mode) *Parser {
	p := &Parser{mode: mode}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.state = stateStartLine
	p.scratchLine.Reset()
	p.headerBytes = 0
	p.Method, p.URL, p.Version = "", "", ""
	p.StatusCode, p.Reason = 0, ""
	p.Headers = make(map[string]string)
	p.HeaderOrder = nil
	p.body.Reset()
	p.contentLength = 0
	p.bodyRead = 0
	p.headersComplete = false
	p.done = false
}

// Reset reinitializes the parser to parse a new message in the same
// mode. Required before calling Parse again once Done() is true.
func (p *Parser) Reset() { p.reset() }

// Done reports whether the parser has paused after a complete message.
func (p *Parser) Done() bool { return p.done }

// HeadersComplete reports whether the header section has been parsed.
func (p *Parser) HeadersComplete() bool { return p.headersComplete }

// Body returns the accumulated body bytes, valid once HeadersComplete.
func (p *Parser) Body() []byte { return p.body.Bytes() }

// Header looks up a lower-cased header name.
func (p *Parser) Header(name string) (string, bool) {
	v, ok := p.Headers[strings.ToLower(name)]
	return v, ok
}

// Parse feeds chunk into the parser, returning the number of bytes
// consumed from chunk and the most significant event observed. Callers
// must drain exactly `consumed` bytes from whatever buffer chunk was
// read from; any remainder belongs to a pipelined request or, once
// EventMessageComplete fires with bytes left in chunk, to the
// WebSocket stream that follows the upgrade.
func (p *Parser) Parse(chunk []byte) (consumed int, event Event, err error) {
	if p.done {
		return 0, EventNone, fmt.Errorf("httpparse: parser is paused; call Reset")
	}

	if p.state == stateBody {
		remain := p.contentLength - p.bodyRead
		n := remain
		if n > len(chunk) {
			n = len(chunk)
		}
		p.body.Append(chunk[:n])
		p.bodyRead += n
		if p.bodyRead >= p.contentLength {
			p.state = stateDone
			p.done = true
			return n, EventMessageComplete, nil
		}
		return n, EventNone, nil
	}

	for consumed < len(chunk) {
		rel := bytes.IndexByte(chunk[consumed:], '\n')
		if rel < 0 {
			p.headerBytes += len(chunk) - consumed
			if p.headerBytes > MaxHeaderBytes {
				return consumed, EventNone, fmt.Errorf("httpparse: header section too large")
			}
			p.scratchLine.Append(chunk[consumed:])
			consumed = len(chunk)
			break
		}

		lineEndExclusive := consumed + rel
		p.scratchLine.Append(chunk[consumed:lineEndExclusive])
		consumed = lineEndExclusive + 1

		line := p.scratchLine.Bytes()
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lineCopy := append([]byte(nil), line...)
		p.scratchLine.Reset()

		p.headerBytes += len(lineCopy)
		if p.headerBytes > MaxHeaderBytes {
			return consumed, EventNone, fmt.Errorf("httpparse: header section too large")
		}

		if p.state == stateStartLine {
			if err := p.parseStartLine(string(lineCopy)); err != nil {
				return consumed, EventNone, err
			}
			p.state = stateHeaders
			continue
		}

		if len(lineCopy) == 0 {
			p.headersComplete = true
			if cl, ok := p.Headers["content-length"]; ok {
				n, convErr := strconv.Atoi(strings.TrimSpace(cl))
				if convErr != nil || n < 0 {
					return consumed, EventNone, fmt.Errorf("httpparse: invalid content-length")
				}
				if n == 0 {
					p.state = stateDone
					p.done = true
					return consumed, EventMessageComplete, nil
				}
				p.contentLength = n
				p.state = stateBody
				return consumed, EventHeadersComplete, nil
			}
			p.state = stateDone
			p.done = true
			return consumed, EventMessageComplete, nil
		}

		if err := p.parseHeaderLine(string(lineCopy)); err != nil {
			return consumed, EventNone, err
		}
	}

	return consumed, EventNone, nil
}

func (p *Parser) parseStartLine(line string) error {
	if p.mode == ModeRequest {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") {
			return fmt.Errorf("httpparse: malformed request line %q", line)
		}
		p.Method, p.URL, p.Version = parts[0], parts[1], parts[2]
		return nil
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return fmt.Errorf("httpparse: malformed status line %q", line)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("httpparse: malformed status code %q", parts[1])
	}
	p.Version = parts[0]
	p.StatusCode = code
	if len(parts) == 3 {
		p.Reason = parts[2]
	}
	return nil
}

func (p *Parser) parseHeaderLine(line string) error {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return fmt.Errorf("httpparse: malformed header line %q", line)
	}
	name := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	if _, exists := p.Headers[name]; !exists {
		p.HeaderOrder = append(p.HeaderOrder, name)
	}
	p.Headers[name] = value
	return nil
}
