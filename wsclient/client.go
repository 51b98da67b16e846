// File: wsclient/client.go
// Package wsclient implements a minimal blocking client-side socket
// API -- connect, read, write, close and set_timeout -- sufficient to
// drive a real network-level conversation against a wsserver.Base
// server: dial, compose the RFC 6455 upgrade request, read the 101
// response, then hand off to a recv loop. It is test and example code,
// not a high-throughput load generator.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wsclient

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/momentics/wscore/wsproto"
)

// Client is one client-side WebSocket connection.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Connect dials addr (a "host:port" string or a ws://host/path URL),
// performs the RFC 6455 upgrade handshake, and returns a ready Client.
func Connect(addr string) (*Client, error) {
	host, path := splitAddr(addr)

	conn, err := net.Dial("tcp", host)
	if err != nil {
		return nil, fmt.Errorf("wsclient: dial: %w", err)
	}

	keyBytes := make([]byte, 16)
	if _, err := rand.Read(keyBytes); err != nil {
		conn.Close()
		return nil, fmt.Errorf("wsclient: generate key: %w", err)
	}
	secKey := base64.StdEncoding.EncodeToString(keyBytes)

	req := fmt.Sprintf(
		"GET %s HTTP/1.1\r\nHost: %s\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: %s\r\nSec-WebSocket-Version: %s\r\n\r\n",
		path, host, secKey, wsproto.RequiredVersion,
	)
	if _, err := conn.Write([]byte(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("wsclient: write handshake: %w", err)
	}

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("wsclient: read handshake response: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		conn.Close()
		return nil, fmt.Errorf("wsclient: handshake failed: status %d", resp.StatusCode)
	}
	if want := wsproto.AcceptKey(secKey); resp.Header.Get("Sec-WebSocket-Accept") != want {
		conn.Close()
		return nil, fmt.Errorf("wsclient: handshake accept key mismatch")
	}

	return &Client{conn: conn, reader: reader}, nil
}

func splitAddr(addr string) (host, path string) {
	if strings.Contains(addr, "://") {
		if u, err := url.Parse(addr); err == nil {
			p := u.RequestURI()
			if p == "" {
				p = "/"
			}
			return u.Host, p
		}
	}
	return addr, "/"
}

// Write sends one masked frame with the given opcode and payload.
func (c *Client) Write(opcode wsproto.Opcode, payload []byte) error {
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: opcode, Masked: true, Payload: payload}, wsproto.RoleClient)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(frame)
	return err
}

// Read blocks for exactly one complete frame and returns its opcode
// and payload. Control and data frames are both returned uninterpreted;
// fragments come back one frame at a time and are not reassembled.
func (c *Client) Read() (wsproto.Opcode, []byte, error) {
	for {
		header := make([]byte, 2)
		if _, err := readFull(c.reader, header); err != nil {
			return 0, nil, err
		}
		fin := header[0]&0x80 != 0
		opcode := wsproto.Opcode(header[0] & 0x0F)
		masked := header[1]&0x80 != 0
		length := int(header[1] & 0x7F)

		switch length {
		case 126:
			ext := make([]byte, 2)
			if _, err := readFull(c.reader, ext); err != nil {
				return 0, nil, err
			}
			length = int(ext[0])<<8 | int(ext[1])
		case 127:
			ext := make([]byte, 8)
			if _, err := readFull(c.reader, ext); err != nil {
				return 0, nil, err
			}
			length = 0
			for _, b := range ext {
				length = length<<8 | int(b)
			}
		}

		var mask [4]byte
		if masked {
			if _, err := readFull(c.reader, mask[:]); err != nil {
				return 0, nil, err
			}
		}

		payload := make([]byte, length)
		if _, err := readFull(c.reader, payload); err != nil {
			return 0, nil, err
		}
		if masked {
			for i := range payload {
				payload[i] ^= mask[i%4]
			}
		}
		if !fin {
			// Minimal client: no reassembly, surface fragments as-is to
			// the caller rather than silently buffering forever.
			return opcode, payload, nil
		}
		return opcode, payload, nil
	}
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

// SetTimeout sets both the read and write deadlines to now+d. A zero d
// clears both deadlines.
func (c *Client) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return c.conn.SetDeadline(time.Time{})
	}
	return c.conn.SetDeadline(time.Now().Add(d))
}

// Close sends a Close frame (best-effort) and closes the socket.
func (c *Client) Close() error {
	_ = c.Write(wsproto.OpClose, wsproto.ClosePayload(wsproto.CloseNormal, ""))
	return c.conn.Close()
}
