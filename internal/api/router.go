// Package api provides the HTTP API of the navigation server.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/handler"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/middleware"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/metrics"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	Navigator   handler.Navigator
	Directions  handler.DirectionsService
	Registry    *resilience.Registry
	Metrics     *metrics.Metrics
	HTTPMetrics *middleware.HTTPMetrics
	RequireTLS  bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing)   // Distributed tracing
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	r.Get("/healthz", opsHandler.HealthCheck)
	r.Get("/readyz", opsHandler.ReadinessCheck)
	r.Method("GET", "/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Navigator != nil {
			nav := handler.NewNavigationHandler(cfg.Navigator, cfg.Logger)
			r.Route("/death-stranding-navigation", func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(middleware.NavigationRateLimit)) // 120 req/min
				r.Get("/", nav.GetRoute)
				r.Get("/locations", nav.ListLocations)
				r.Get("/preview", nav.GetPreview)
			})
		}

		if cfg.Directions != nil {
			dir := handler.NewDirectionsHandler(cfg.Directions, cfg.Logger)
			r.Route("/tencent-directions", func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(middleware.DirectionsRateLimit)) // 30 req/min
				r.Get("/", dir.GetDirections)
				r.Get("/path", dir.GetPath)
			})
		}
	})

	return r
}
