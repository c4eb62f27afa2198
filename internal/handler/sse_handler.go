package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/sse"
)

const ssePingInterval = 30 * time.Second

// SSEHandler handles Server-Sent Events for panel real-time updates.
type SSEHandler struct {
	hub *sse.Hub
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream handles GET /api/events?token=<jwt>
// EventSource API cannot set custom headers, so the JWT middleware also
// accepts the token as a query parameter.
func (h *SSEHandler) Stream(c *gin.Context) {
	actor := middleware.GetActor(c)
	clientID := fmt.Sprintf("operator-%d-%d", actor.OperatorID, time.Now().UnixNano())

	// attraction operators only see their own attraction's events
	var scope *int
	if id, restricted := actor.Attraction(); restricted {
		scope = &id
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID, scope)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int("operator_id", actor.OperatorID).Msg("Panel SSE stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(eventName(data), string(data))
			return true
		case <-time.After(ssePingInterval):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// eventName extracts the event type from a broadcast payload.
func eventName(data []byte) string {
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Event == "" {
		return "message"
	}
	return head.Event
}
