package connection_test

import (
	"testing"

	"github.com/momentics/wscore/connection"
	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/wsproto"
	"github.com/stretchr/testify/require"
)

func upgradeRequest(key string) []byte {
	return []byte("GET / HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + key + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"\r\n")
}

func mustUpgrade(t *testing.T) *connection.Conn {
	t.Helper()
	c := connection.New(1, env.New(env.LevelCrit))
	res := c.Feed(upgradeRequest("dGhlIHNhbXBsZSBub25jZQ=="))
	require.NoError(t, res.Err)
	require.Equal(t, connection.StateUpgraded, c.State)
	require.Len(t, res.Outbound, 1)
	require.Contains(t, string(res.Outbound[0]), "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=")
	return c
}

func TestHandshakeAcceptKey(t *testing.T) {
	mustUpgrade(t)
}

func TestTextEchoScenario(t *testing.T) {
	c := mustUpgrade(t)
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpText, Masked: true, Payload: []byte("Hello")}, wsproto.RoleClient)
	require.NoError(t, err)

	res := c.Feed(frame)
	require.NoError(t, res.Err)
	require.Len(t, res.Messages, 1)
	require.Equal(t, wsproto.OpText, res.Messages[0].Opcode)
	require.Equal(t, "Hello", string(res.Messages[0].Payload))
}

func TestPingPongScenario(t *testing.T) {
	c := mustUpgrade(t)
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpPing, Masked: true, Payload: []byte{1, 2, 3}}, wsproto.RoleClient)
	require.NoError(t, err)

	res := c.Feed(frame)
	require.NoError(t, res.Err)
	require.Len(t, res.Outbound, 1)
	require.Equal(t, []byte{0x8A, 0x03, 1, 2, 3}, res.Outbound[0])
}

func TestCloseHandshakeScenario(t *testing.T) {
	c := mustUpgrade(t)
	payload := wsproto.ClosePayload(wsproto.CloseNormal, "")
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpClose, Masked: true, Payload: payload}, wsproto.RoleClient)
	require.NoError(t, err)

	res := c.Feed(frame)
	require.NoError(t, res.Err)
	require.True(t, res.CloseAfterOutbound)
	require.Len(t, res.Outbound, 1)
	require.Equal(t, []byte{0x88, 0x02, 0x03, 0xE8}, res.Outbound[0])
	require.Equal(t, connection.StateClosing, c.State)
}

func TestCloseHandshakeAlwaysRepliesNormalRegardlessOfClientCode(t *testing.T) {
	c := mustUpgrade(t)
	payload := wsproto.ClosePayload(wsproto.CloseCode(1001), "going away")
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpClose, Masked: true, Payload: payload}, wsproto.RoleClient)
	require.NoError(t, err)

	res := c.Feed(frame)
	require.NoError(t, res.Err)
	require.True(t, res.CloseAfterOutbound)
	require.Len(t, res.Outbound, 1)
	require.Equal(t, []byte{0x88, 0x02, 0x03, 0xE8}, res.Outbound[0])
	require.Equal(t, connection.StateClosing, c.State)
}

func TestFragmentationScenario(t *testing.T) {
	c := mustUpgrade(t)

	f1, _ := wsproto.Encode(&wsproto.Frame{Fin: false, Opcode: wsproto.OpText, Masked: true, Payload: []byte("Hel")}, wsproto.RoleClient)
	f2, _ := wsproto.Encode(&wsproto.Frame{Fin: false, Opcode: wsproto.OpContinuation, Masked: true, Payload: []byte("lo, ")}, wsproto.RoleClient)
	f3, _ := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpContinuation, Masked: true, Payload: []byte("world")}, wsproto.RoleClient)

	res := c.Feed(append(append(f1, f2...), f3...))
	require.NoError(t, res.Err)
	require.Len(t, res.Messages, 1)
	require.Equal(t, wsproto.OpText, res.Messages[0].Opcode)
	require.Equal(t, "Hello, world", string(res.Messages[0].Payload))
}

func TestPipelinedBytesAfterHandshakeAreNotLost(t *testing.T) {
	c := connection.New(1, env.New(env.LevelCrit))
	req := upgradeRequest("dGhlIHNhbXBsZSBub25jZQ==")
	frame, _ := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpText, Masked: true, Payload: []byte("Hello")}, wsproto.RoleClient)

	res := c.Feed(append(req, frame...))
	require.NoError(t, res.Err)
	require.Equal(t, connection.StateUpgraded, c.State)
	require.Len(t, res.Messages, 1)
	require.Equal(t, "Hello", string(res.Messages[0].Payload))
}

func TestRejectsUnmaskedClientFrame(t *testing.T) {
	c := mustUpgrade(t)
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: wsproto.OpText, Masked: false, Payload: []byte("x")}, wsproto.RoleServer)
	require.NoError(t, err)

	res := c.Feed(frame)
	require.Error(t, res.Err)
}

func TestBadUpgradeHeadersClosesConnection(t *testing.T) {
	c := connection.New(1, env.New(env.LevelCrit))
	req := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n") // no Upgrade header
	res := c.Feed(req)
	require.Error(t, res.Err)
	require.Equal(t, connection.StateClosed, c.State)
}
