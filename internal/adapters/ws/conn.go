// Package ws adapts gorilla/websocket connections to the engine's
// Transport seam: one buffered send channel per connection, a write pump
// draining it and a read pump feeding decoded events to the router.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vleray/parley/internal/core"
)

var ErrClosed = errors.New("connection closed")

// Conn wraps one websocket connection. TrySend never blocks: a full buffer
// returns core.ErrBackpressure and the frame is dropped.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(conn *websocket.Conn, buffer int) *Conn {
	return &Conn{
		conn: conn,
		send: make(chan core.Frame, buffer),
	}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
