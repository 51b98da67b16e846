// File: msgadapter/processor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package msgadapter

import (
	"errors"

	"github.com/momentics/wscore/wsproto"
	"github.com/momentics/wscore/wsserver"
)

// Handler processes one decoded Message and optionally returns a reply
// Message to be re-encoded in the same wire format and sent back.
type Handler func(cid uint32, msg *Message) (*Message, error)

// Processor adapts a Handler to wsserver.Processor: it decodes each
// inbound binary WebSocket message into a Message, invokes the
// handler, and re-encodes any reply. A policy violation (malformed
// wire shape) surfaces as a wsserver.CloseError carrying
// PolicyViolationCloseCode, so the worker pool closes the connection
// with status 1008; the wrapped ErrPolicyViolation stays reachable via
// errors.Is.
type Processor struct {
	Handler Handler
}

// NewProcessor wraps handler as a wsserver.Processor.
func NewProcessor(handler Handler) *Processor {
	return &Processor{Handler: handler}
}

var _ wsserver.Processor = (*Processor)(nil)

// Process implements wsserver.Processor.
func (p *Processor) Process(cid uint32, wsMsg *wsserver.Message) (*wsserver.Message, error) {
	if wsMsg.Opcode != wsproto.OpBinary {
		return nil, errors.New("msgadapter: messaging server requires binary frames")
	}
	decoded, err := Decode(wsMsg.Payload)
	if err != nil {
		return nil, wsserver.NewCloseError(PolicyViolationCloseCode, err)
	}
	reply, err := p.Handler(cid, decoded)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}
	reply.Format = decoded.Format
	encoded, err := Encode(reply)
	if err != nil {
		return nil, err
	}
	return &wsserver.Message{Opcode: wsproto.OpBinary, Payload: encoded}, nil
}

// PolicyViolationCloseCode is the status the reactor/worker layer
// should use when ErrPolicyViolation is detected, per the
// specification's "malformed top-level shape closes with 1008" rule.
const PolicyViolationCloseCode = wsproto.CloseCode(1008)

// IsPolicyViolation reports whether err (or a wrapped cause) is
// ErrPolicyViolation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPolicyViolation)
}
