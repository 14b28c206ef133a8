package navigation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/metrics"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/telemetry"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// ServiceConfig holds configuration for the navigation service.
type ServiceConfig struct {
	// Atlas resolves location names (default: terrain.DefaultAtlas()).
	Atlas *terrain.Atlas

	// Field is the hazard field routes are planned against (default: terrain.DefaultField()).
	Field *terrain.Field

	// Synthesizer builds the routes. If nil, one with default settings is created.
	Synthesizer *Synthesizer

	// Steps is the number of route segments (default: 25).
	Steps int

	// Jitter is the full width of the per-axis noise band. Nil selects
	// DefaultJitter; zero disables jitter.
	Jitter *float64

	// SimulatedLatency delays each plan to mimic a remote planner. Zero disables it.
	SimulatedLatency time.Duration

	// PreviewSource drives the preview control point. If nil, an entropy source is used.
	PreviewSource JitterSource

	// Metrics records domain metrics. May be nil.
	Metrics *metrics.Metrics

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service plans routes between named locations.
type Service struct {
	atlas         *terrain.Atlas
	field         *terrain.Field
	synth         *Synthesizer
	steps         int
	jitter        float64
	latency       time.Duration
	previewSource JitterSource
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates a new navigation service.
func NewService(cfg ServiceConfig) *Service {
	atlas := cfg.Atlas
	if atlas == nil {
		atlas = terrain.DefaultAtlas()
	}

	field := cfg.Field
	if field == nil {
		field = terrain.DefaultField()
	}

	synth := cfg.Synthesizer
	if synth == nil {
		synth = NewSynthesizer(SynthesizerConfig{})
	}

	steps := cfg.Steps
	if steps == 0 {
		steps = DefaultSteps
	}

	jitter := DefaultJitter
	if cfg.Jitter != nil {
		jitter = *cfg.Jitter
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		atlas:         atlas,
		field:         field,
		synth:         synth,
		steps:         steps,
		jitter:        jitter,
		latency:       cfg.SimulatedLatency,
		previewSource: cfg.PreviewSource,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           now,
	}
}

// TerrainAnalysis counts the hazards in the field by kind.
type TerrainAnalysis struct {
	ObstaclesDetected int
	BTZones           int
	TimefallAreas     int
	CliffAreas        int
}

// Plan is a synthesized route with its score and advisories.
type Plan struct {
	From        terrain.Location
	To          terrain.Location
	Route       Route
	Stats       Stats
	Quality     Quality
	Warnings    []string
	Terrain     TerrainAnalysis
	Hazards     []terrain.Hazard
	GeneratedAt time.Time
}

// Preview is a hazard-agnostic curve between two locations.
type Preview struct {
	From   terrain.Location
	To     terrain.Location
	Points []geometry.Point
}

// Atlas returns the location table the service resolves names against.
func (s *Service) Atlas() *terrain.Atlas {
	return s.atlas
}

// Field returns the hazard field routes are planned against.
func (s *Service) Field() *terrain.Field {
	return s.field
}

// Plan synthesizes and scores a route between two named locations.
func (s *Service) Plan(ctx context.Context, from, to string) (*Plan, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "navigation.Plan", trace.WithAttributes(
		attribute.String("navigation.from", from),
		attribute.String("navigation.to", to),
	))
	defer span.End()

	origin, dest, err := s.resolve(from, to)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	route := s.synth.Synthesize(origin.Point, dest.Point, s.steps, s.field, s.jitter)
	stats := ComputeStats(route, s.field)
	quality := Classify(stats.Difficulty)

	plan := &Plan{
		From:     origin,
		To:       dest,
		Route:    route,
		Stats:    stats,
		Quality:  quality,
		Warnings: Warnings(stats),
		Terrain: TerrainAnalysis{
			ObstaclesDetected: s.field.Len(),
			BTZones:           s.field.CountByCategory(terrain.HighRisk),
			TimefallAreas:     s.field.CountByCategory(terrain.Weather),
			CliffAreas:        s.field.CountByCategory(terrain.Cliff),
		},
		Hazards:     s.field.Hazards(),
		GeneratedAt: s.now().UTC(),
	}

	s.metrics.ObserveRoute(string(quality), stats.Difficulty, len(route))
	span.SetAttributes(
		attribute.Int("navigation.waypoints", len(route)),
		attribute.Float64("navigation.difficulty", stats.Difficulty),
		attribute.String("navigation.quality", string(quality)),
	)

	s.logger.Debug().
		Str("from", from).
		Str("to", to).
		Int("waypoints", len(route)).
		Float64("distance", stats.Distance).
		Float64("difficulty", stats.Difficulty).
		Str("quality", string(quality)).
		Str("deflection_mode", s.synth.Mode().String()).
		Msg("route synthesized")

	return plan, nil
}

// Preview builds the placeholder Bézier curve between two named locations.
func (s *Service) Preview(ctx context.Context, from, to string) (*Preview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin, dest, err := s.resolve(from, to)
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePreview()

	return &Preview{
		From:   origin,
		To:     dest,
		Points: PreviewRoute(origin.Point, dest.Point, DefaultPreviewSteps, DefaultPreviewSpread, s.previewSource),
	}, nil
}

func (s *Service) resolve(from, to string) (terrain.Location, terrain.Location, error) {
	if from == "" || to == "" {
		return terrain.Location{}, terrain.Location{}, s.reject(&ValidationError{Missing: true})
	}

	origin, ok := s.atlas.Lookup(from)
	if !ok {
		return terrain.Location{}, terrain.Location{}, s.reject(&ValidationError{Name: from, Valid: s.atlas.Names()})
	}
	dest, ok := s.atlas.Lookup(to)
	if !ok {
		return terrain.Location{}, terrain.Location{}, s.reject(&ValidationError{Name: to, Valid: s.atlas.Names()})
	}

	return terrain.Location{Name: from, Point: origin}, terrain.Location{Name: to, Point: dest}, nil
}

func (s *Service) reject(err *ValidationError) error {
	s.metrics.ObserveValidationError(err.Reason())
	s.logger.Debug().Err(err).Str("name", err.Name).Msg("navigation request rejected")
	return err
}

// JitterWidth returns a pointer for ServiceConfig.Jitter.
func JitterWidth(w float64) *float64 {
	return &w
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
