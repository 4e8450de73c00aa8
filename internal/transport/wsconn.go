package transport

import (
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// wsNetConn adapts a gorilla websocket.Conn to net.Conn so it can be
// handed to the paho client. MQTT control packets are carried as binary
// WebSocket messages; a packet may span message boundaries, so reads
// drain the current message before advancing to the next.
type wsNetConn struct {
	ws     *websocket.Conn
	reader io.Reader
}

func newWSNetConn(ws *websocket.Conn) *wsNetConn {
	return &wsNetConn{ws: ws}
}

// Read implements net.Conn, streaming across WebSocket message frames.
func (c *wsNetConn) Read(b []byte) (int, error) {
	for {
		if c.reader == nil {
			messageType, reader, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if messageType != websocket.BinaryMessage {
				// Ignore non-binary frames; MQTT-over-WS is binary only.
				continue
			}
			c.reader = reader
		}

		n, err := c.reader.Read(b)
		if err == io.EOF {
			// Current message exhausted; advance to the next frame.
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write implements net.Conn, sending each write as one binary message.
func (c *wsNetConn) Write(b []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *wsNetConn) Close() error {
	return c.ws.Close()
}

func (c *wsNetConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *wsNetConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *wsNetConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsNetConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *wsNetConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
