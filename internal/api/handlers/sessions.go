package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/infrastructure/database/repository"
	"sentinel-lab/pkg/logger"
)

// SessionsHandler serves the read-side session API
type SessionsHandler struct {
	engine *services.Engine
	intel  *repository.IntelRepository
	logger *logger.Logger
}

// NewSessionsHandler creates a new SessionsHandler
func NewSessionsHandler(engine *services.Engine, intel *repository.IntelRepository, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		engine: engine,
		intel:  intel,
		logger: log.WithComponent("sessions"),
	}
}

// Get handles GET /api/v1/sessions/{id} - returns the session state
// including accumulated intelligence and conversation history. An
// unseen id returns the synthesized default session, never a 404.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error":"session id is required"}`, http.StatusBadRequest)
		return
	}

	session, err := h.engine.Session(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to load session")
		http.Error(w, `{"error":"session store unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id":    session.ID,
		"phase":         session.Phase,
		"persona":       session.Persona,
		"scam_detected": session.ScamDetected,
		"turn_count":    session.TurnCount(),
		"intelligence":  session.Intelligence,
		"conversation":  session.LastTurns(5),
		"last_updated":  session.LastUpdated,
	})
}

// Intel handles GET /api/v1/sessions/{id}/intel - returns the durable
// capture history for a session from the archive.
func (h *SessionsHandler) Intel(w http.ResponseWriter, r *http.Request) {
	if h.intel == nil {
		http.Error(w, `{"error":"intel archive not configured"}`, http.StatusNotImplemented)
		return
	}

	id := chi.URLParam(r, "id")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	records, err := h.intel.ListBySession(r.Context(), id, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to list intel records")
		http.Error(w, `{"error":"archive unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"records":    records,
		"count":      len(records),
	})
}
