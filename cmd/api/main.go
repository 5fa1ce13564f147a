package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel-lab/internal/api"
	"sentinel-lab/internal/api/handlers"
	"sentinel-lab/internal/config"
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/domain/services/ai"
	"sentinel-lab/internal/infrastructure/cache"
	"sentinel-lab/internal/infrastructure/database"
	"sentinel-lab/internal/infrastructure/database/repository"
	"sentinel-lab/internal/infrastructure/sessionstore"
	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Sentinel Lab")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Infrastructure: all optional, the pipeline degrades per feature
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}
	defer func() {
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	var db *database.PostgresDB
	var intelRepo *repository.IntelRepository
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without intel archive")
		} else {
			intelRepo = repository.NewIntelRepository(db.Pool(), log)
			if err := intelRepo.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure intel schema, disabling archive")
				intelRepo = nil
			}
		}
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	// Session store: Redis when available, in-process otherwise
	var sessions sessionstore.Store
	if cfg.Sessions.Backend == "redis" && redisCache != nil {
		sessions = sessionstore.NewRedisStore(redisCache, cfg.Sessions.TTL, log)
		log.Info().Dur("ttl", cfg.Sessions.TTL).Msg("using Redis session store")
	} else {
		sessions = sessionstore.NewMemoryStore()
		log.Info().Msg("using in-memory session store")
	}
	defer sessions.Close()

	// Streaming
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without distributed streaming")
			natsPublisher = nil
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()

	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)

	// Forward bus events to websocket clients
	go func() {
		ch, unsubscribe := eventBus.Subscribe(ctx)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				wsHub.BroadcastEvent(ev)
			}
		}
	}()

	// External AI services: feature-detected once at startup
	var (
		classifier services.ClassificationService
		assist     services.ExtractionService
		generator  services.GenerationService
	)
	if cfg.LLM.HasAPIKey() {
		llm := ai.NewLLMClient(ai.LLMConfig{
			Provider:     cfg.LLM.Provider,
			ClaudeAPIKey: cfg.LLM.ClaudeAPIKey,
			OpenAIAPIKey: cfg.LLM.OpenAIAPIKey,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
		}, log)
		classifier = ai.NewClassifier(llm, cfg.LLM.ClassifyTimeout, log)
		assist = ai.NewAssistExtractor(llm, cfg.LLM.ExtractTimeout, log)
		generator = ai.NewGenerator(llm, cfg.LLM.GenerateTimeout, log)
		log.Info().Str("provider", cfg.LLM.Provider).Msg("AI services enabled")
	} else {
		log.Warn().Msg("no LLM API key configured, running rule-based and template-only")
	}

	// Core services
	detector := services.NewDetector(classifier, cfg.Detection, log)
	extractor := services.NewExtractor(assist, log)
	orchestrator := services.NewOrchestrator(generator, nil, log)
	metrics := services.NewMetricsCollector()

	var webhooks *services.WebhookService
	if cfg.Webhooks.Enabled && len(cfg.Webhooks.Endpoints) > 0 {
		webhooks = services.NewWebhookService(cfg.Webhooks, log)
		defer webhooks.Stop()
	}

	var archive services.IntelArchive
	if intelRepo != nil {
		archive = intelRepo
	}

	engine := services.NewEngine(detector, extractor, orchestrator, sessions, eventBus, webhooks, archive, metrics, log)

	// HTTP layer
	h := handlers.NewHandlers(handlers.Dependencies{
		Engine:  engine,
		Cache:   redisCache,
		Intel:   intelRepo,
		NATS:    natsPublisher,
		Hub:     wsHub,
		Version: cfg.App.Version,
		Logger:  log,
	})

	router := api.NewRouter(*cfg, h, redisCache, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
