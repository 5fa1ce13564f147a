package handlers

import (
	"net/http"

	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

// StreamingHandler exposes the live engagement feed over WebSocket
type StreamingHandler struct {
	hub    *streaming.WebSocketHub
	logger *logger.Logger
}

// NewStreamingHandler creates a new StreamingHandler
func NewStreamingHandler(hub *streaming.WebSocketHub, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		hub:    hub,
		logger: log.WithComponent("streaming"),
	}
}

// ServeWS handles GET /api/v1/stream/ws
func (h *StreamingHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, `{"error":"streaming not configured"}`, http.StatusNotImplemented)
		return
	}
	h.hub.ServeWebSocket(w, r)
}
