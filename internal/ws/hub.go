package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"tycoon_bot/internal/logger"
)

// Hub tracks connected clients per user and pushes game events to them. A
// user may hold several connections (multiple devices); every one gets each
// event.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		log:     logger.Component("ws"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.UserID] = conns
	}
	conns[c] = struct{}{}
	h.log.Debug("client registered", "user_id", c.UserID, "connections", len(conns))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Notify sends one typed event to every connection of the user. Slow
// connections are skipped rather than blocked on; the source of truth is the
// database, the socket is only a hint to refresh.
func (h *Hub) Notify(userID int64, eventType string, payload interface{}) {
	msg, err := json.Marshal(Envelope{Type: eventType, Data: payload})
	if err != nil {
		h.log.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			h.log.Warn("dropping event, send buffer full", "user_id", userID, "type", eventType)
		}
	}
}

// Connected reports how many users currently hold at least one connection.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
