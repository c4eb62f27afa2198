package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventSaleCreated         EventType = "sale.created"
	EventAttendanceConfirmed EventType = "attendance.confirmed"
	EventAttendanceCancelled EventType = "attendance.cancelled"
	EventOrdersSynced        EventType = "orders.synced"
)

// Event is the payload broadcast to panel SSE clients. Events with an
// AttractionID reach admins and that attraction's operators only; events
// without one reach admins and staff.
type Event struct {
	Event        EventType `json:"event"`
	AttractionID *int      `json:"attractionId,omitempty"`
	Data         any       `json:"data"`
	Timestamp    time.Time `json:"timestamp"`
}

// Client represents a connected SSE panel client. A nil AttractionID means
// the client sees every event.
type Client struct {
	ID           string
	AttractionID *int
	Events       chan []byte
}

func (c *Client) wants(e *Event) bool {
	if c.AttractionID == nil {
		return true
	}
	return e.AttractionID != nil && *e.AttractionID == *c.AttractionID
}

// Hub manages SSE client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming.
func (h *Hub) Register(clientID string, attractionID *int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:           clientID,
		AttractionID: attractionID,
		Events:       make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast sends an event to every interested client.
// Non-blocking: drops message if client buffer is full.
func (h *Hub) Broadcast(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.wants(event) {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
