// File: msgadapter/message.go
// Package msgadapter implements the messaging-server adapter (C10): a
// higher-level message shape carrying a routing map, a headers map and
// an opaque payload, layered atop the WebSocket frame codec (C5) with
// wire auto-detection between MessagePack and JSON.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package msgadapter

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackMarker is the first byte of any MessagePack-encoded 3-element
// fixarray, used to auto-detect the wire format on receive.
const MsgpackMarker = 0x93

// Format identifies which wire codec produced/should produce a Message.
type Format int

const (
	FormatMsgpack Format = iota
	FormatJSON
)

// Message is the application-level envelope: a routing map (e.g.
// destination topic/address), a headers map (metadata), and an opaque
// payload. It is the unit the messaging adapter sends and receives,
// one per reassembled WebSocket binary message.
type Message struct {
	Routing map[string]string
	Headers map[string]string
	Payload []byte
	Format  Format
}

// ErrPolicyViolation is returned when the decoded wire shape does not
// match the expected 3-element [routing, headers, payload] array; the
// caller should close the connection with status 1008.
var ErrPolicyViolation = fmt.Errorf("msgadapter: malformed message shape")

// Encode serializes m using its Format.
func Encode(m *Message) ([]byte, error) {
	switch m.Format {
	case FormatMsgpack:
		return msgpack.Marshal([]any{m.Routing, m.Headers, m.Payload})
	case FormatJSON:
		return json.Marshal([]any{m.Routing, m.Headers, string(m.Payload)})
	default:
		return nil, fmt.Errorf("msgadapter: unknown format %d", m.Format)
	}
}

// Decode auto-detects the wire format by inspecting the first byte: a
// MessagePack 3-element fixarray marker (0x93) selects the MessagePack
// decoder, anything else falls back to JSON. It returns
// ErrPolicyViolation when the top-level shape is not a 3-element
// [routing, headers, payload] array.
func Decode(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrPolicyViolation)
	}
	if data[0] == MsgpackMarker {
		return decodeMsgpack(data)
	}
	return decodeJSON(data)
}

func decodeMsgpack(data []byte) (*Message, error) {
	var arr []any
	if err := msgpack.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("%w: msgpack: %v", ErrPolicyViolation, err)
	}
	if len(arr) != 3 {
		return nil, fmt.Errorf("%w: expected 3-element array, got %d", ErrPolicyViolation, len(arr))
	}
	routing, err := toStringMap(arr[0])
	if err != nil {
		return nil, fmt.Errorf("%w: routing: %v", ErrPolicyViolation, err)
	}
	headers, err := toStringMap(arr[1])
	if err != nil {
		return nil, fmt.Errorf("%w: headers: %v", ErrPolicyViolation, err)
	}
	payload, ok := arr[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not bytes", ErrPolicyViolation)
	}
	return &Message{Routing: routing, Headers: headers, Payload: payload, Format: FormatMsgpack}, nil
}

func decodeJSON(data []byte) (*Message, error) {
	var arr [3]json.RawMessage
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrPolicyViolation, err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("%w: expected 3-element array, got %d", ErrPolicyViolation, len(raw))
	}
	arr[0], arr[1], arr[2] = raw[0], raw[1], raw[2]

	var routing, headers map[string]string
	var payload string
	if err := json.Unmarshal(arr[0], &routing); err != nil {
		return nil, fmt.Errorf("%w: routing: %v", ErrPolicyViolation, err)
	}
	if err := json.Unmarshal(arr[1], &headers); err != nil {
		return nil, fmt.Errorf("%w: headers: %v", ErrPolicyViolation, err)
	}
	if err := json.Unmarshal(arr[2], &payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrPolicyViolation, err)
	}
	return &Message{Routing: routing, Headers: headers, Payload: []byte(payload), Format: FormatJSON}, nil
}

func toStringMap(v any) (map[string]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		if sm, ok := v.(map[string]string); ok {
			return sm, nil
		}
		return nil, fmt.Errorf("not a map: %T", v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("value for key %q is not a string", k)
		}
		out[k] = s
	}
	return out, nil
}
