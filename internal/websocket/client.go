package websocket

import (
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Client is one accepted WebSocket connection. It is the registry's sink for
// that connection.
type Client struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
}

func newClient(id, remoteAddr string, conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now().UTC(),
		conn:        conn,
		send:        make(chan []byte, bufferSize),
	}
}

// Send queues a frame for the write pump without blocking. It returns false
// when the buffer is full or the client is closed.
func (c *Client) Send(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close closes the send channel, which stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// outbound returns the channel drained by the write pump.
func (c *Client) outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
