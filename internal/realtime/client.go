package realtime

import (
	"sync"

	"github.com/campuslink/chatcore/internal/models"
	"github.com/gorilla/websocket"
)

// Client wraps one websocket connection. Gorilla allows a single concurrent
// writer, so all event pushes serialize through the mutex.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) SendEvent(event models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
