package handlers

import (
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/infrastructure/cache"
	"sentinel-lab/internal/infrastructure/database/repository"
	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Engage    *EngageHandler
	Sessions  *SessionsHandler
	Stats     *StatsHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Engine  *services.Engine
	Cache   *cache.RedisCache
	Intel   *repository.IntelRepository
	NATS    *streaming.NATSPublisher
	Hub     *streaming.WebSocketHub
	Version string
	Logger  *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Cache, deps.Intel, deps.NATS, deps.Version, deps.Logger),
		Engage:    NewEngageHandler(deps.Engine, deps.Logger),
		Sessions:  NewSessionsHandler(deps.Engine, deps.Intel, deps.Logger),
		Stats:     NewStatsHandler(deps.Engine, deps.Intel, deps.Cache, deps.Logger),
		Streaming: NewStreamingHandler(deps.Hub, deps.Logger),
	}
}
