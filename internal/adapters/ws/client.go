// Package ws is the session gateway: it owns WebSocket connections,
// keys them by connection id, and translates the JSON envelope
// protocol into coordinator and chat router calls.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrBackpressure is returned by TrySend when a client's send buffer
// is full. Delivery is fire-and-forget; the frame is dropped.
var ErrBackpressure = errors.New("backpressure")

// client is one live WebSocket connection and its outbound queue. The
// gateway owns the transport resources and closes them.
type client struct {
	connectionID string
	conn         *websocket.Conn
	send         chan []byte
	once         sync.Once
}

func newClient(connectionID string, conn *websocket.Conn, buffer int) *client {
	return &client{
		connectionID: connectionID,
		conn:         conn,
		send:         make(chan []byte, buffer),
	}
}

func (c *client) TrySend(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *client) Close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}
