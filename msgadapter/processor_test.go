package msgadapter_test

import (
	"testing"

	"github.com/momentics/wscore/msgadapter"
	"github.com/momentics/wscore/wsproto"
	"github.com/momentics/wscore/wsserver"
	"github.com/stretchr/testify/require"
)

func TestProcessorEchoesDecodedMessage(t *testing.T) {
	proc := msgadapter.NewProcessor(func(cid uint32, msg *msgadapter.Message) (*msgadapter.Message, error) {
		return msg, nil
	})

	in := &msgadapter.Message{
		Routing: map[string]string{"to": "x"},
		Headers: map[string]string{},
		Payload: []byte("data"),
		Format:  msgadapter.FormatMsgpack,
	}
	wire, err := msgadapter.Encode(in)
	require.NoError(t, err)

	reply, err := proc.Process(1, &wsserver.Message{Opcode: wsproto.OpBinary, Payload: wire})
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Equal(t, wsproto.OpBinary, reply.Opcode)

	got, err := msgadapter.Decode(reply.Payload)
	require.NoError(t, err)
	require.Equal(t, in.Payload, got.Payload)
}

func TestProcessorRejectsTextFrames(t *testing.T) {
	proc := msgadapter.NewProcessor(func(cid uint32, msg *msgadapter.Message) (*msgadapter.Message, error) {
		return nil, nil
	})
	_, err := proc.Process(1, &wsserver.Message{Opcode: wsproto.OpText, Payload: []byte("hi")})
	require.Error(t, err)
}

func TestProcessorClosesWithPolicyViolationOnMalformedWire(t *testing.T) {
	proc := msgadapter.NewProcessor(func(cid uint32, msg *msgadapter.Message) (*msgadapter.Message, error) {
		return nil, nil
	})
	_, err := proc.Process(1, &wsserver.Message{Opcode: wsproto.OpBinary, Payload: []byte(`["only-two"]`)})
	require.True(t, msgadapter.IsPolicyViolation(err))

	var ce *wsserver.CloseError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, msgadapter.PolicyViolationCloseCode, ce.Code)
}
