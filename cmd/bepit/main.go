package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatinfra "github.com/boddenberg/bepit-bfa-go/internal/chat/infra"
	chatport "github.com/boddenberg/bepit-bfa-go/internal/chat/port"
	chatservice "github.com/boddenberg/bepit-bfa-go/internal/chat/service"
	"github.com/boddenberg/bepit-bfa-go/internal/config"
	"github.com/boddenberg/bepit-bfa-go/internal/handler"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/cache"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/events"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/postgres"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
	"github.com/boddenberg/bepit-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	dotenvKeys, dotenvErr := config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	switch {
	case dotenvErr == nil:
		logger.Info(".env loaded", zap.Strings("keys", dotenvKeys))
	case !errors.Is(dotenvErr, fs.ErrNotExist):
		logger.Warn(".env ignored", zap.Error(dotenvErr))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend", cfg.Backend),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.Bool("redis_cache", cfg.RedisURL != ""),
		zap.Duration("conversation_cache_ttl", cfg.ConversationCacheTTL),
		zap.Bool("nats", cfg.NATSURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("chat_rate_limit", cfg.ChatRateLimit),
		zap.String("default_region", cfg.DefaultRegionSlug),
	)

	ctx := context.Background()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "bepit-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// --- Store ---
	var store port.Store
	switch cfg.Backend {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL is required for BACKEND=postgres")
		}
		pg, err := postgres.NewStore(ctx, cfg.DatabaseURL, resilience.NewCircuitBreaker("postgres"), resilienceCfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("failed to apply schema", zap.Error(err))
		}
		logger.Info("using Postgres as data backend")
		store = pg
	case config.BackendSupabase:
		if cfg.SupabaseURL == "" {
			logger.Fatal("SUPABASE_URL is required for BACKEND=supabase")
		}
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		store = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
	default:
		logger.Fatal("unknown BACKEND", zap.String("backend", cfg.Backend))
	}

	health := []handler.HealthCheck{{Name: cfg.Backend, Pinger: store, Critical: true}}

	// --- Fallback conversation cache ---
	convCache, redisCache := cache.NewFallback(ctx, cfg.RedisURL, cfg.ConversationCacheTTL, logger)
	if redisCache != nil {
		defer redisCache.Close()
		health = append(health, handler.HealthCheck{Name: "redis", Pinger: redisCache})
	}

	// --- Analytics fan-out ---
	var publisher port.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			logger.Warn("nats unavailable, analytics fan-out disabled", zap.Error(err))
		} else {
			defer nc.Close()
			publisher = nc
			health = append(health, handler.HealthCheck{Name: "nats", Pinger: nc})
		}
	}

	// --- LLM ---
	var llm chatport.TextGenerator
	if cfg.LLMEnabled() {
		gen, err := chatinfra.NewGenerator(chatinfra.GeneratorConfig{
			Provider:       cfg.LLMProvider,
			APIKey:         cfg.LLMAPIKey,
			BaseURL:        cfg.LLMBaseURL,
			Model:          cfg.LLMModel,
			RPS:            cfg.LLMRPS,
			Burst:          cfg.LLMBurst,
			MaxConcurrency: cfg.MaxConcurrency,
			HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		}, resilience.NewCircuitBreaker("llm"), resilienceCfg, metrics, logger)
		if err != nil {
			logger.Fatal("failed to build llm generator", zap.Error(err))
		}
		llm = gen
		logger.Info("llm enabled", zap.String("provider", cfg.LLMProvider))
	} else {
		logger.Info("llm disabled, using deterministic extraction and templates")
	}

	// --- Services ---
	chatSvc := chatservice.NewChatService(chatservice.Dependencies{
		Catalog:       store,
		Conversations: store,
		Cache:         convCache,
		Interactions:  store,
		Analytics:     store,
		Publisher:     publisher,
		LLM:           llm,
		Metrics:       metrics,
		Logger:        logger,
	})
	catalogSvc := service.NewCatalogService(store, logger)
	statsSvc := service.NewMetricsService(store, metrics, logger)

	adminAuth := service.NewAdminAuth(cfg.AdminKey, cfg.AdminKeyHash, cfg.AdminJWTSecret, cfg.AdminSessionTTL, logger)
	if !adminAuth.Enabled() {
		logger.Warn("ADMIN_KEY not configured, admin routes will reject every request")
	}

	// --- Router ---
	router := handler.NewRouter(handler.RouterDeps{
		Chat:           chatSvc,
		Catalog:        catalogSvc,
		Stats:          statsSvc,
		Auth:           adminAuth,
		Metrics:        metrics,
		Health:         health,
		Logger:         logger,
		DefaultRegion:  cfg.DefaultRegionSlug,
		AllowedOrigins: cfg.AllowedOrigins,
		ChatRateLimit:  cfg.ChatRateLimit,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
