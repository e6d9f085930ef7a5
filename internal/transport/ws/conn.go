package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is what the hub and registry hold: a non-owning reference to a live
// connection. The transport layer owns the lifetime.
type Conn interface {
	ID() string
	Emit(event string, payload any) error
	Close() error
}

type wsConn struct {
	conn   *websocket.Conn
	id     string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		id:     uuid.NewString(),
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Emit(event string, payload any) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(Message{Type: event, Payload: payload})
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
