// Package realtime bridges broker push topics to connected WebSocket
// clients.  Every client receives every event; filtering by topic is
// the client's job since topics are advisory re-fetch signals rather
// than data carriers.
package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

const (
	writeWait      = 10 * time.Second // deadline for one outbound write
	pongWait       = 60 * time.Second // how long to wait for a pong
	pingPeriod     = 50 * time.Second // must be less than pongWait
	sendBufferSize = 32               // queued events per client before eviction
)

// Hub fans broker events out to every registered WebSocket client.
// Slow clients are evicted instead of blocking the broadcast: a client
// whose send buffer is full gets disconnected and can resubscribe,
// re-fetching whatever it missed (the protocol is built for that).
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

type client struct {
	conn *websocket.Conn
	send chan queue.Event
}

// Broadcast queues the event to every connected client.
func (h *Hub) Broadcast(ev queue.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// Buffer full; the write pump will notice the closed
			// channel and drop the connection.
			go h.evict(c)
		}
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) evict(c *client) {
	h.unregister(c)
	_ = c.conn.Close()
}

// Run attaches a connection to the hub and blocks until it drops.
// The read pump discards inbound frames (clients only listen) and
// keeps the pong deadline fresh; the write pump serializes events and
// pings.
func (h *Hub) Run(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan queue.Event, sendBufferSize)}
	h.register(c)

	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("realtime: write failed: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
