package directions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/metrics"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/telemetry"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

// Path sources.
const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

// BoundsPadding is added on every side of a decoded path's bounding box, in degrees.
const BoundsPadding = 0.01

// ServiceConfig holds configuration for the directions service.
type ServiceConfig struct {
	// Provider is the upstream directions provider.
	Provider Provider

	// Cache stores upstream answers. If nil, a 256-entry MemoryCache is used.
	Cache Cache

	// CacheTTL is how long an answer is served without asking upstream (default: 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving older answers while the provider is failing (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CacheGridSize quantizes coordinates in cache keys, in degrees (default: 0.0001, ~11m).
	CacheGridSize float64

	// Fallback builds the path served when upstream fails (default: StaticFallback).
	Fallback FallbackFunc

	// Metrics records domain metrics. May be nil.
	Metrics *metrics.Metrics

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service fronts a Provider with a cache and the decode-or-fallback path builder.
type Service struct {
	provider      Provider
	cache         Cache
	cacheTTL      time.Duration
	staleTTL      time.Duration
	cacheGridSize float64
	fallback      FallbackFunc
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time

	// fetchMu serializes upstream calls on cache misses.
	fetchMu sync.Mutex
}

// NewService creates a new directions service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("directions: provider is required")
	}

	cache := cfg.Cache
	if cache == nil {
		mem, err := NewMemoryCache(256)
		if err != nil {
			return nil, err
		}
		cache = mem
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	staleTTL := cfg.StaleIfErrorTTL
	if staleTTL == 0 {
		staleTTL = 15 * time.Minute
	}
	if staleTTL < cacheTTL {
		staleTTL = cacheTTL
	}

	grid := cfg.CacheGridSize
	if grid == 0 {
		grid = 0.0001
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = StaticFallback
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider:      cfg.Provider,
		cache:         cache,
		cacheTTL:      cacheTTL,
		staleTTL:      staleTTL,
		cacheGridSize: grid,
		fallback:      fallback,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           now,
	}, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Directions returns the upstream answer for req, from cache when fresh.
// When the provider fails transiently, an answer younger than the stale
// window is served instead.
func (s *Service) Directions(ctx context.Context, req Request) (*Result, error) {
	if req.Mode == "" {
		req.Mode = ModeDriving
	}
	key := s.cacheKey(req)

	if entry := s.lookup(ctx, key); entry != nil && s.fresh(entry) {
		s.metrics.ObserveCache("hit")
		return entry.Result, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	// Another request may have filled the entry while we waited.
	entry := s.lookup(ctx, key)
	if entry != nil && s.fresh(entry) {
		s.metrics.ObserveCache("hit")
		return entry.Result, nil
	}
	s.metrics.ObserveCache("miss")

	s.logger.Debug().
		Str("from", FormatCoordinate(req.From)).
		Str("to", FormatCoordinate(req.To)).
		Str("mode", string(req.Mode)).
		Str("provider", s.provider.Name()).
		Msg("fetching directions from provider")

	fetchCtx, span := telemetry.Tracer().Start(ctx, "directions.fetch")
	span.SetAttributes(
		attribute.String("directions.provider", s.provider.Name()),
		attribute.String("directions.mode", string(req.Mode)),
	)
	start := time.Now()
	result, err := s.provider.Directions(fetchCtx, req)
	s.metrics.ObserveUpstream(s.provider.Name(), outcome(err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
	}
	span.End()

	if err != nil {
		if entry != nil && IsRetryable(err) && s.now().Before(entry.FetchedAt.Add(s.staleTTL)) {
			s.metrics.ObserveCache("stale")
			s.logger.Warn().Err(err).
				Time("fetched_at", entry.FetchedAt).
				Str("cache_key", key).
				Msg("serving stale directions due to provider error")
			return entry.Result, nil
		}
		return nil, err
	}

	if result.FetchedAt.IsZero() {
		result.FetchedAt = s.now()
	}
	if err := s.cache.Set(ctx, key, &Entry{Result: result, FetchedAt: result.FetchedAt}, s.staleTTL); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to cache directions")
	}

	return result, nil
}

// Path is a decoded route ready for rendering.
type Path struct {
	// Source is SourceUpstream or SourceFallback.
	Source string
	// Reason explains a fallback. Empty for upstream paths.
	Reason string
	Points []polyline.Coordinate
	// Bounds encloses Points, padded by BoundsPadding.
	Bounds       orb.Bound
	LengthMeters float64
}

// Path fetches directions and decodes the first route. Any failure,
// including an empty decode, yields the fallback path instead of an error.
func (s *Service) Path(ctx context.Context, req Request) *Path {
	result, err := s.Directions(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("directions unavailable, using fallback path")
		return s.fallbackPath(req, err.Error())
	}

	points, err := polyline.Decode(result.Polyline)
	switch {
	case errors.Is(err, polyline.ErrInsufficientData):
		s.metrics.ObserveDecode("insufficient_data", 0)
		s.logger.Warn().Int("values", len(result.Polyline)).Msg("polyline too short to decode")
		return s.fallbackPath(req, err.Error())
	case err != nil:
		s.metrics.ObserveDecode("error", 0)
		return s.fallbackPath(req, err.Error())
	case len(points) == 0:
		s.metrics.ObserveDecode("empty", 0)
		s.logger.Warn().Int("values", len(result.Polyline)).Msg("polyline decoded to no valid coordinates")
		return s.fallbackPath(req, "no route coordinates found in response")
	}

	s.metrics.ObserveDecode("ok", len(points))
	return newPath(SourceUpstream, "", points)
}

func (s *Service) fallbackPath(req Request, reason string) *Path {
	s.metrics.ObserveFallback()
	return newPath(SourceFallback, reason, s.fallback(req.From, req.To))
}

func newPath(source, reason string, points []polyline.Coordinate) *Path {
	return &Path{
		Source:       source,
		Reason:       reason,
		Points:       points,
		Bounds:       polyline.Bounds(points, BoundsPadding),
		LengthMeters: polyline.Length(points),
	}
}

// Purge drops every cached answer.
func (s *Service) Purge(ctx context.Context) error {
	return s.cache.Purge(ctx)
}

func (s *Service) lookup(ctx context.Context, key string) *Entry {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("directions cache read failed")
		return nil
	}
	return entry
}

func (s *Service) fresh(e *Entry) bool {
	return s.now().Before(e.FetchedAt.Add(s.cacheTTL))
}

// cacheKey quantizes both endpoints to the cache grid.
// Format: {mode}:{lat},{lng}:{lat},{lng}.
func (s *Service) cacheKey(req Request) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.4f,%.4f:%.4f,%.4f",
		req.Mode,
		q(req.From.Lat), q(req.From.Lng),
		q(req.To.Lat), q(req.To.Lng),
	)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUpstreamStatus):
		return "upstream_status"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	default:
		return "unavailable"
	}
}
