// Package main provides the entrypoint for the navigation API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/middleware"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/config"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions/tencent"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/metrics"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/navigation"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/provider/resilience"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "strand-api"

func main() {
	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil {
		log = log.Level(level)
	} else {
		log.Warn().Str("log_level", cfg.App.LogLevel).Msg("unknown log level, using info")
		log = log.Level(zerolog.InfoLevel)
	}
	if cfg.App.IsDevelopment() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting navigation API")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewHTTPMetrics()
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.New(promRegistry)

	// Upstream provider
	providers := resilience.NewRegistry()
	if cfg.Tencent.Key == "" {
		log.Warn().Msg("Tencent Maps key not configured - directions proxy will answer 500")
	}
	tencentClient := tencent.NewClient(tencent.ClientConfig{
		Key:           cfg.Tencent.Key,
		BaseURL:       cfg.Tencent.BaseURL,
		Timeout:       cfg.Tencent.Timeout,
		RatePerSecond: cfg.Tencent.RatePerSecond,
		Burst:         cfg.Tencent.Burst,
		Registry:      providers,
		Logger:        log,
	})

	cache, closeCache, err := newCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	directionsService, err := directions.NewService(directions.ServiceConfig{
		Provider:        tencentClient,
		Cache:           cache,
		CacheTTL:        cfg.Cache.TTL,
		StaleIfErrorTTL: cfg.Cache.StaleTTL,
		Metrics:         domainMetrics,
		Logger:          log,
	})
	if err != nil {
		return err
	}

	navigationService := navigation.NewService(navigation.ServiceConfig{
		Synthesizer: navigation.NewSynthesizer(navigation.SynthesizerConfig{
			Mode: navigation.ParseDeflectionMode(cfg.Navigation.DeflectionMode),
		}),
		Steps:            cfg.Navigation.Steps,
		Jitter:           navigation.JitterWidth(cfg.Navigation.Jitter),
		SimulatedLatency: cfg.Navigation.SimulatedLatency,
		Metrics:          domainMetrics,
		Logger:           log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		Navigator:   navigationService,
		Directions:  directionsService,
		Registry:    providers,
		Metrics:     domainMetrics,
		HTTPMetrics: httpMetrics,
		RequireTLS:  cfg.Server.RequireTLS,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newCache(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger) (directions.Cache, func(), error) {
	if cfg.Backend == config.CacheValkey {
		vc, err := directions.NewValkeyCache(cfg.ValkeyAddr, "")
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := vc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.ValkeyAddr).Msg("valkey not reachable yet, cache misses will fall through")
		}
		log.Info().Str("addr", cfg.ValkeyAddr).Msg("directions cache: valkey")
		return vc, vc.Close, nil
	}

	mc, err := directions.NewMemoryCache(cfg.Size)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Int("size", cfg.Size).Msg("directions cache: memory")
	return mc, func() {}, nil
}
