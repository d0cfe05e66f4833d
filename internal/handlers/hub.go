package handlers

import (
	"sync"
	"time"

	"event-gallery/internal/models"
	"event-gallery/internal/utils"
)

// Hub fans gallery change events out to every connected websocket client.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*hubConn
}

// writeTimeout bounds a single write to a client that stopped reading.
const writeTimeout = 5 * time.Second

// hubWriter is satisfied by *websocket.Conn.
type hubWriter interface {
	utils.JSONWriter
	SetWriteDeadline(t time.Time) error
}

type hubConn struct {
	// writes to one connection must not interleave
	mu sync.Mutex
	w  hubWriter
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*hubConn)}
}

func (h *Hub) Register(connID string, w hubWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = &hubConn{w: w}
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send writes message to a single connection.
func (h *Hub) Send(connID string, message interface{}) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		conn.send(message, "Send")
	}
}

// Broadcast writes message to every connection. The registry lock is not
// held while writing. Failed writes are logged; the read loop of that
// connection handles the disconnect.
func (h *Hub) Broadcast(message interface{}) {
	h.mu.RLock()
	conns := make([]*hubConn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.send(message, "Broadcast")
	}
}

// GalleryUpdated tells clients to refresh their gallery view.
func (h *Hub) GalleryUpdated(count int) {
	h.Broadcast(models.GalleryEvent{Event: "gallery_updated", Count: count})
}

func (c *hubConn) send(message interface{}, context string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		utils.LogError(err, context)
		return
	}
	utils.LogError(utils.SendJSON(c.w, message), context)
}
