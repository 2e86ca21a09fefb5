// Package ws adapts a coder/websocket connection to the message-framed
// Conn the handshake and relay layers expect. The websocket library
// reassembles fragmented frames, so every read yields one complete
// logical message.
package ws

import (
	"context"

	"github.com/coder/websocket"
)

// Conn wraps one websocket connection.
type Conn struct {
	c *websocket.Conn
}

// Wrap adapts conn. A positive readLimit caps the size of one inbound
// message; the library default is far too small for file attachments.
func Wrap(conn *websocket.Conn, readLimit int64) *Conn {
	if readLimit > 0 {
		conn.SetReadLimit(readLimit)
	}
	return &Conn{c: conn}
}

// ReadMessage reads one complete message.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	_, data, err := c.c.Read(ctx)
	return data, err
}

// WriteMessage writes data as a single binary message.
func (c *Conn) WriteMessage(ctx context.Context, data []byte) error {
	return c.c.Write(ctx, websocket.MessageBinary, data)
}

// Close performs a normal websocket closure.
func (c *Conn) Close() error {
	return c.c.Close(websocket.StatusNormalClosure, "")
}
