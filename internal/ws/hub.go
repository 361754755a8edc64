package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"turbine-monitor/internal/storage"
)

// Hub fans raised alerts out to connected dashboard clients. Clients that
// cannot keep up are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// BroadcastAlert sends one alert to every connected client.
func (h *Hub) BroadcastAlert(alert storage.AlertRecord) {
	payload, err := json.Marshal(map[string]any{"type": "alert", "payload": alert})
	if err != nil {
		h.logger.Error("failed to marshal alert broadcast", slog.String("error", err.Error()))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
			h.logger.Info("dropped slow websocket client")
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
