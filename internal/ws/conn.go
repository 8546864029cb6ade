package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

// ErrConnClosed reports a send on a connection that is already closed.
var ErrConnClosed = errors.New("connection closed")

// ErrSendBufferFull reports a recipient whose outbound buffer is full.
// Delivery is at-most-once and best effort: the message is dropped.
var ErrSendBufferFull = errors.New("send buffer full")

// Conn is the outbound side of one player's live connection. Messages
// enqueued by Send reach the peer in order.
type Conn interface {
	Send(data []byte) error
	Close(reason string)
}

// socketConn adapts a gorilla websocket to Conn with a buffered send
// channel and a single writer goroutine, so concurrent fan-out never
// interleaves frames.
type socketConn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
	reason string
}

func newSocketConn(ws *websocket.Conn, logger *slog.Logger) *socketConn {
	c := &socketConn{
		ws:     ws,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
	}
	go c.writePump()
	return c
}

func (c *socketConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the writer after the queue drains and sends the close frame
// with the given reason. Safe to call more than once.
func (c *socketConn) Close(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.reason = reason
	c.mu.Unlock()
	close(c.send)
}

func (c *socketConn) writePump() {
	for data := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.Debug("websocket write failed", "error", err)
			c.Close("")
			// Drain so pending senders are not stuck behind a dead socket.
			for range c.send {
			}
			break
		}
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, c.reason)
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, message)
	c.ws.Close()
}
