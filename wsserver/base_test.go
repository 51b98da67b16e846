package wsserver_test

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/momentics/wscore/wsserver"
	"github.com/stretchr/testify/require"
)

const wsMagic = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

func acceptKey(nonce string) string {
	sum := sha1.Sum([]byte(nonce + wsMagic))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func echoProcessor() wsserver.ProcessorFunc {
	return func(cid uint32, msg *wsserver.Message) (*wsserver.Message, error) {
		return msg, nil
	}
}

func maskedTextFrame(payload string) []byte {
	mask := [4]byte{0x11, 0x22, 0x33, 0x44}
	b := []byte(payload)
	masked := make([]byte, len(b))
	for i, c := range b {
		masked[i] = c ^ mask[i%4]
	}
	var out []byte
	out = append(out, 0x81) // FIN + text
	out = append(out, 0x80|byte(len(masked)))
	out = append(out, mask[:]...)
	out = append(out, masked...)
	return out
}

func TestEndToEndEcho(t *testing.T) {
	cfg := wsserver.DefaultConfig()
	cfg.Processor = echoProcessor()
	cfg.NumWorkers = 2

	srv, err := wsserver.New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	defer srv.Shutdown()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	nonce := base64.StdEncoding.EncodeToString([]byte("0123456789ab"))
	req := "GET / HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + nonce + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	_, err = conn.Write([]byte(req))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, status, "101")

	var acceptLine string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "sec-websocket-accept:") {
			acceptLine = line
		}
	}
	require.Contains(t, acceptLine, acceptKey(nonce))

	_, err = conn.Write(maskedTextFrame("ping-pong"))
	require.NoError(t, err)

	header := make([]byte, 2)
	_, err = readFull(reader, header)
	require.NoError(t, err)
	require.Equal(t, byte(0x81), header[0])
	payloadLen := int(header[1] & 0x7F)
	payload := make([]byte, payloadLen)
	_, err = readFull(reader, payload)
	require.NoError(t, err)
	require.Equal(t, "ping-pong", string(payload))
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
