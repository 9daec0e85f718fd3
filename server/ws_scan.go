package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"melodex/logger"
	"melodex/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const wsWriteTimeout = 5 * time.Second

// ScanHub pushes live scan progress to connected websocket clients. A
// client that cannot keep up is dropped rather than allowed to stall a
// running scan.
type ScanHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewScanHub creates an empty hub.
func NewScanHub() *ScanHub {
	return &ScanHub{clients: make(map[*websocket.Conn]bool)}
}

// HandleWS upgrades the connection and keeps it registered until the
// client disconnects.
func (h *ScanHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	logger.Debug("Scan progress client connected")

	// Clients only listen; the read loop exists to notice the close.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *ScanHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
	logger.Debug("Scan progress client disconnected")
}

// Broadcast sends a progress event to every connected client.
func (h *ScanHub) Broadcast(p model.ScanProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(p); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
