package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/infrastructure/sessionstore"
	"sentinel-lab/pkg/logger"
)

// EngageHandler handles the message ingress endpoint
type EngageHandler struct {
	engine *services.Engine
	logger *logger.Logger
}

// NewEngageHandler creates a new EngageHandler
func NewEngageHandler(engine *services.Engine, log *logger.Logger) *EngageHandler {
	return &EngageHandler{
		engine: engine,
		logger: log.WithComponent("engage"),
	}
}

// Message handles POST /api/v1/engage/message - processes one scammer
// message and returns the agent's reply with the turn's analysis.
func (h *EngageHandler) Message(w http.ResponseWriter, r *http.Request) {
	var msg models.MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := msg.Validate(); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	result, err := h.engine.HandleMessage(r.Context(), &msg)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", msg.SessionID).Msg("engagement failed")
		if errors.Is(err, sessionstore.ErrUnavailable) {
			http.Error(w, `{"error":"session store unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		http.Error(w, `{"error":"engagement failed"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("session_id", result.SessionID).
		Bool("is_scam", result.IsScam).
		Str("scam_type", string(result.ScamType)).
		Str("phase", string(result.Phase)).
		Int("turn_count", result.TurnCount).
		Int64("latency_ms", result.LatencyMS).
		Msg("message engaged")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
