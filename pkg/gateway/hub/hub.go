// Package hub fans server events out to every connected WebSocket
// client. Broadcasting never blocks: a client that cannot keep up is
// disconnected rather than stalling the rest.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
	readLimit  = 4096
)

// Client is one registered WebSocket connection. All writes go through
// its buffered send channel; reads stay with the caller.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

// Conn exposes the underlying connection for the read loop.
func (c *Client) Conn() *websocket.Conn { return c.conn }

// Send queues an event for this client. It reports false when the
// client's buffer is full, which disconnects the client.
func (c *Client) Send(event any) bool {
	select {
	case c.send <- event:
		return true
	default:
		c.hub.logger.Warn("client too slow, disconnecting", "client", c.ID)
		c.hub.Unregister(c)
		return false
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				c.hub.Unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c)
				return
			}
		}
	}
}

// Hub tracks connected clients and broadcasts events to all of them.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// New builds an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Register adopts a freshly upgraded connection: it applies the read
// limits, starts the write loop and returns the client handle. The
// caller owns the read side and must call Unregister and Close when
// the read loop ends.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	go c.writeLoop()

	h.logger.Info("client connected", "client", c.ID, "clients", h.Count())
	return c
}

// Unregister removes the client from the broadcast set.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()

	if present {
		h.logger.Info("client disconnected", "client", c.ID, "clients", h.Count())
	}
	c.Close()
}

// Broadcast queues event for every client. Slow clients are dropped.
func (h *Hub) Broadcast(event any) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		c.Send(event)
	}
}

// Count reports how many clients are connected.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
