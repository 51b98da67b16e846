// File: wsproto/frame_property_test.go
// Property-based round-trip checks for the frame codec using
// github.com/leanovate/gopter, exercising "for all inputs" framing
// invariants directly rather than only fixed example tables.
package wsproto_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/momentics/wscore/wsproto"
)

func TestFramingRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(frame)) reproduces opcode, fin and payload", prop.ForAll(
		func(payload []byte, useText bool) bool {
			op := wsproto.OpBinary
			if useText {
				op = wsproto.OpText
			}
			encoded, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: op, Masked: true, Payload: payload}, wsproto.RoleClient)
			if err != nil {
				return false
			}
			decoded, consumed, status, err := wsproto.Decode(encoded, wsproto.RoleServer)
			if err != nil || status != wsproto.Complete || consumed != len(encoded) {
				return false
			}
			if decoded.Opcode != op || !decoded.Fin {
				return false
			}
			if len(decoded.Payload) != len(payload) {
				return false
			}
			for i := range payload {
				if decoded.Payload[i] != payload[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()).Map(func(bs []uint8) []byte {
			out := make([]byte, len(bs))
			for i, b := range bs {
				out[i] = byte(b)
			}
			return out
		}),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
