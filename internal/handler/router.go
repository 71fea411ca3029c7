package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/bepit-bfa-go/internal/chat/handler"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bepit-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps groups what NewRouter wires into routes.
type RouterDeps struct {
	Chat    chathandler.ChatProcessor
	Catalog *service.CatalogService
	Stats   *service.MetricsService
	Auth    *service.AdminAuth
	Metrics *observability.Metrics
	Health  []HealthCheck
	Logger  *zap.Logger

	DefaultRegion  string
	AllowedOrigins []string
	ChatRateLimit  int // requests per minute per IP; 0 disables
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", AdminKeyHeader},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/health", healthHandler())
	r.Get("/healthz", healthzHandler(d.Health))
	r.Get("/readyz", readyzHandler())
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {

		// =============================================
		// 1. Chat
		// POST /api/chat/{regionSlug}
		// POST /api/chat
		// POST /api/feedback
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(ChatRateLimit(d.ChatRateLimit, time.Minute))
			r.Post("/chat/{regionSlug}", chathandler.ChatHandler(d.Chat, d.DefaultRegion, logger))
			r.Post("/chat", chathandler.ChatHandler(d.Chat, d.DefaultRegion, logger))
			r.Post("/feedback", chathandler.FeedbackHandler(d.Chat, logger))
		})

		// =============================================
		// 2. Admin (X-Admin-Key or Bearer session)
		// =============================================
		r.Route("/admin", func(r chi.Router) {
			r.Post("/session", adminSessionHandler(d.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(d.Auth, logger))

				r.Get("/regions", listRegionsHandler(d.Catalog, logger))
				r.Post("/regions", createRegionHandler(d.Catalog, logger))
				r.Get("/regions/{id}", getRegionHandler(d.Catalog, logger))
				r.Put("/regions/{id}", updateRegionHandler(d.Catalog, logger))
				r.Delete("/regions/{id}", deleteRegionHandler(d.Catalog, logger))

				r.Get("/cities", listCitiesHandler(d.Catalog, logger))
				r.Post("/cities", createCityHandler(d.Catalog, logger))
				r.Get("/cities/{id}", getCityHandler(d.Catalog, logger))
				r.Put("/cities/{id}", updateCityHandler(d.Catalog, logger))
				r.Delete("/cities/{id}", deleteCityHandler(d.Catalog, logger))

				r.Get("/items", listItemsHandler(d.Catalog, logger))
				r.Post("/items", createItemHandler(d.Catalog, logger))
				r.Get("/items/{id}", getItemHandler(d.Catalog, logger))
				r.Put("/items/{id}", updateItemHandler(d.Catalog, logger))
				r.Delete("/items/{id}", deleteItemHandler(d.Catalog, logger))

				r.Get("/metrics/summary", metricsSummaryHandler(d.Stats, logger))
				r.Get("/metrics/runtime", metricsRuntimeHandler(d.Stats))
				r.Get("/logs", logsHandler(d.Stats, logger))
			})
		})
	})

	return r
}
