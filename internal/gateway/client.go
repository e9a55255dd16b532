package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arcade-universe/server/protocol"
)

const (
	// sendBuffer bounds the per-connection outbound queue. A client that
	// cannot drain this many messages is considered too slow and further
	// sends to it are dropped rather than blocking the relay.
	sendBuffer = 64

	writeWait = 10 * time.Second
)

// Client wraps one WebSocket connection. Reads happen on the handler's read
// pump; writes are serialized through the send channel and drained by the
// write pump, since the underlying connection supports one concurrent writer.
type Client struct {
	id     string
	socket *websocket.Conn

	send chan []byte

	mu       sync.Mutex
	closed   bool
	gameType string
	roomID   string
}

func newClient(id string, socket *websocket.Conn) *Client {
	return &Client{
		id:     id,
		socket: socket,
		send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Send encodes and queues an outbound message. It never blocks: if the
// client's queue is full or the connection is closed the message is dropped,
// which is safe because all relay payloads are advisory.
func (c *Client) Send(kind protocol.Kind, payload any) {
	raw, err := protocol.Encode(kind, payload)
	if err != nil {
		slog.Error("Failed to encode outbound message", "connID", c.id, "kind", kind, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- raw:
	default:
		slog.Warn("Dropping message for slow client", "connID", c.id, "kind", kind)
	}
}

// Closed reports whether the connection has been torn down.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close marks the client dead and stops the write pump. Safe to call twice.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) setGameType(gameType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameType = gameType
}

func (c *Client) GameType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameType
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// writePump drains the send channel to the socket. It exits when close()
// closes the channel, then sends the close frame.
func (c *Client) writePump() {
	defer c.socket.Close()

	for raw := range c.send {
		c.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.socket.WriteMessage(websocket.TextMessage, raw); err != nil {
			slog.Warn("Failed to write to client", "connID", c.id, "error", err)
			return
		}
	}
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
