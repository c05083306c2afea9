package presence

import (
	"sync"

	"github.com/gorilla/websocket"

	"gochat/pkg/errors"
	"gochat/pkg/protocol"
)

// sendBuffer is the per-connection outbound queue depth. A slow reader
// fills its own buffer and fails its own pushes without blocking senders.
const sendBuffer = 256

// Client represents one live, identity-bound connection.
type Client struct {
	id       string
	identity protocol.Identity
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	closed   bool
}

// NewClient wraps a websocket connection with its bound identity.
func NewClient(id string, identity protocol.Identity, conn *websocket.Conn) *Client {
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Identity returns the bound identity
func (c *Client) Identity() protocol.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Conn returns the WebSocket connection
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// Outbound exposes the queue drained by the connection's writer goroutine.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// Push queues a payload for delivery. It never blocks: a full buffer or a
// closed client fails the push and the caller decides whether that matters.
// The read lock is held across the send so Close cannot close the queue
// between the closed-check and the send.
func (c *Client) Push(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.ErrConnectionNotFound
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return errors.ErrSendTimeout
	}
}

// Close closes the outbound queue and the underlying connection. Safe to
// call more than once. The queue is closed under the write lock, mutually
// exclusive with any in-flight Push.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsClosed checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
