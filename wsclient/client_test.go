package wsclient_test

import (
	"net"
	"testing"
	"time"

	"github.com/momentics/wscore/wsclient"
	"github.com/momentics/wscore/wsproto"
	"github.com/momentics/wscore/wsserver"
	"github.com/stretchr/testify/require"
)

func echoProcessor() wsserver.ProcessorFunc {
	return func(cid uint32, msg *wsserver.Message) (*wsserver.Message, error) {
		return msg, nil
	}
}

func TestClientConnectWriteReadClose(t *testing.T) {
	cfg := wsserver.DefaultConfig()
	cfg.Processor = echoProcessor()

	srv, err := wsserver.New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go srv.Serve(ln)
	defer srv.Shutdown()

	c, err := wsclient.Connect(ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetTimeout(3*time.Second))
	require.NoError(t, c.Write(wsproto.OpText, []byte("hello")))

	opcode, payload, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, wsproto.OpText, opcode)
	require.Equal(t, "hello", string(payload))
}

func TestClientPingPong(t *testing.T) {
	cfg := wsserver.DefaultConfig()
	cfg.Processor = echoProcessor()

	srv, err := wsserver.New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go srv.Serve(ln)
	defer srv.Shutdown()

	c, err := wsclient.Connect(ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetTimeout(3*time.Second))
	require.NoError(t, c.Write(wsproto.OpPing, []byte("abc")))

	opcode, payload, err := c.Read()
	require.NoError(t, err)
	require.Equal(t, wsproto.OpPong, opcode)
	require.Equal(t, "abc", string(payload))
}
