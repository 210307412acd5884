package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is a single orchestration event pushed to WebSocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client wraps a connection with an optional type filter. An empty
// filter receives everything. Filter entries match either a full event
// type ("task_completed") or its category ("task").
type client struct {
	conn   *websocket.Conn
	filter map[string]bool
}

func (c *client) wants(eventType string) bool {
	if len(c.filter) == 0 {
		return true
	}
	if c.filter[eventType] {
		return true
	}
	if i := strings.Index(eventType, "_"); i > 0 {
		return c.filter[eventType[:i]]
	}
	return false
}

// Hub fans orchestration events out to connected WebSocket clients.
type Hub struct {
	clients   map[*client]bool
	broadcast chan Event
	mu        sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan Event, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(event.Type) {
					continue
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					c.conn.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("websocket broadcast channel full, dropping event", "type", event.Type)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// ClientCount reports the number of connected WebSocket clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and streams orchestration
// events. A ?types=task,agent query restricts the feed to those event
// categories; full event types like task_completed work as well. The
// current system status is sent as the first frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	if types := r.URL.Query().Get("types"); types != "" {
		c.filter = make(map[string]bool)
		for _, t := range strings.Split(types, ",") {
			c.filter[strings.TrimSpace(t)] = true
		}
	}

	if snapshot, err := json.Marshal(Event{Type: "status", Payload: s.orch.Status()}); err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			conn.Close()
			return
		}
	}

	s.hub.register(c)
	defer func() {
		s.hub.unregister(c)
		conn.Close()
	}()

	// Drain client messages until the connection closes; the hub only
	// pushes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
