package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/infrastructure/cache"
	"sentinel-lab/internal/infrastructure/database/repository"
	"sentinel-lab/pkg/logger"
)

const statsCacheKey = "stats:summary"

// StatsHandler serves aggregate engagement statistics
type StatsHandler struct {
	engine *services.Engine
	intel  *repository.IntelRepository
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(engine *services.Engine, intel *repository.IntelRepository, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		engine: engine,
		intel:  intel,
		cache:  c,
		logger: log.WithComponent("stats"),
	}
}

// StatsResponse combines live counters with archive totals
type StatsResponse struct {
	services.MetricsSnapshot
	ArchivedEntities map[string]int64 `json:"archived_entities,omitempty"`
}

// Get handles GET /api/v1/stats. The archive counts are the expensive
// part, so the whole response is cached briefly when Redis is present.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.cache != nil {
		var cached StatsResponse
		if err := h.cache.GetJSON(r.Context(), statsCacheKey, &cached); err == nil {
			json.NewEncoder(w).Encode(cached)
			return
		}
	}

	resp := StatsResponse{MetricsSnapshot: h.engine.Metrics().Snapshot()}

	if h.intel != nil {
		counts, err := h.intel.CountByKind(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to read archive counts")
		} else {
			resp.ArchivedEntities = counts
		}
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(r.Context(), statsCacheKey, resp, 10*time.Second); err != nil {
			h.logger.Debug().Err(err).Msg("failed to cache stats response")
		}
	}

	json.NewEncoder(w).Encode(resp)
}
