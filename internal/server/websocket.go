package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/db"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The stream is read-only outcome data; origin filtering adds
		// nothing over the network-level access control of the listener
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans completed run records out to websocket subscribers
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Broadcast sends the run record to every connected subscriber, dropping
// connections that fail to accept the write
func (h *Hub) Broadcast(run *db.Run) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(run); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects every subscriber and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.closed = true
}

func (h *Hub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[conn] = true
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// handleRunsStream upgrades the connection and streams run outcomes as
// they complete
func (s *Server) handleRunsStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return err
	}

	if !s.hub.add(conn) {
		conn.Close()
		return nil
	}
	defer func() {
		s.hub.remove(conn)
		conn.Close()
	}()

	// Subscribers only receive; the read loop exists to notice disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
