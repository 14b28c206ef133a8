// Package navigation synthesizes routes across the planar map, bending them
// around terrain hazards, and scores the result.
package navigation

import (
	"math"
	"math/rand/v2"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/terrain"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/geometry"
)

// Route is an ordered sequence of integer-rounded map points, origin first.
type Route []geometry.Point

// DeflectionMode selects how a point that intersects several hazards is resolved.
type DeflectionMode int

const (
	// DeflectSequential applies each intersecting hazard once, in field order.
	// A later hazard may push the point back into an earlier one; the last
	// deflection wins. This matches the behavior existing clients were tuned on.
	DeflectSequential DeflectionMode = iota

	// DeflectFixedPoint repeats the sequential pass until no hazard intersects
	// the point or MaxDeflectIterations passes have run.
	DeflectFixedPoint
)

// ParseDeflectionMode converts a config value to a DeflectionMode.
// Unknown values select DeflectSequential.
func ParseDeflectionMode(s string) DeflectionMode {
	switch s {
	case "fixed_point", "fixed-point", "fixedpoint":
		return DeflectFixedPoint
	default:
		return DeflectSequential
	}
}

// String returns the config name of the mode.
func (m DeflectionMode) String() string {
	if m == DeflectFixedPoint {
		return "fixed_point"
	}
	return "sequential"
}

// JitterSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type JitterSource interface {
	Float64() float64
}

// entropySource draws from the runtime-seeded global generator, which is safe
// for concurrent use.
type entropySource struct{}

func (entropySource) Float64() float64 { return rand.Float64() }

// NewSeededSource returns a deterministic source for reproducible routes.
// The returned source is not safe for concurrent use.
func NewSeededSource(seed uint64) JitterSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Synthesis defaults.
const (
	DefaultSafetyMargin         = 20.0
	DefaultDeflectionOffset     = 30.0
	DefaultMaxDeflectIterations = 8
	DefaultSteps                = 25
	DefaultJitter               = 15.0
	minSteps                    = 2
)

// SynthesizerConfig holds configuration for a Synthesizer.
type SynthesizerConfig struct {
	// SafetyMargin is added to a hazard radius when testing intersection (default: 20).
	SafetyMargin float64

	// DeflectionOffset is added to a hazard radius before scaling by the
	// category strength to obtain the push-out distance (default: 30).
	DeflectionOffset float64

	// Mode selects the multi-hazard resolution strategy (default: DeflectSequential).
	Mode DeflectionMode

	// MaxDeflectIterations bounds DeflectFixedPoint (default: 8).
	MaxDeflectIterations int

	// Source supplies jitter. If nil, an entropy-seeded source is used.
	Source JitterSource
}

// Synthesizer generates hazard-avoiding routes between two points.
// It holds no per-call state; concurrent use is safe as long as Source is.
type Synthesizer struct {
	safetyMargin     float64
	deflectionOffset float64
	mode             DeflectionMode
	maxIterations    int
	source           JitterSource
}

// NewSynthesizer creates a Synthesizer, filling unset fields with defaults.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.SafetyMargin == 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.DeflectionOffset == 0 {
		cfg.DeflectionOffset = DefaultDeflectionOffset
	}
	if cfg.MaxDeflectIterations <= 0 {
		cfg.MaxDeflectIterations = DefaultMaxDeflectIterations
	}
	if cfg.Source == nil {
		cfg.Source = entropySource{}
	}

	return &Synthesizer{
		safetyMargin:     cfg.SafetyMargin,
		deflectionOffset: cfg.DeflectionOffset,
		mode:             cfg.Mode,
		maxIterations:    cfg.MaxDeflectIterations,
		source:           cfg.Source,
	}
}

// Mode returns the configured deflection mode.
func (s *Synthesizer) Mode() DeflectionMode {
	return s.mode
}

// Synthesize walks the straight line from origin to destination in stepCount
// steps, pushes points out of intersecting hazards, jitters interior points
// by up to ±jitter/2 on each axis and rounds every point to whole units.
//
// The result always has stepCount+1 points. stepCount below 2 is treated as 2
// and a negative or NaN jitter as 0. Endpoints are never jittered but are
// deflected like any other point if they sit inside a hazard.
func (s *Synthesizer) Synthesize(origin, destination geometry.Point, stepCount int, field *terrain.Field, jitter float64) Route {
	if stepCount < minSteps {
		stepCount = minSteps
	}
	if !(jitter > 0) {
		jitter = 0
	}

	hazards := field.Hazards()
	route := make(Route, 0, stepCount+1)

	for i := 0; i <= stepCount; i++ {
		t := float64(i) / float64(stepCount)
		p := geometry.Lerp(origin, destination, t)

		p = s.deflect(p, hazards)

		if i > 0 && i < stepCount && jitter > 0 {
			p.X += (s.source.Float64() - 0.5) * jitter
			p.Y += (s.source.Float64() - 0.5) * jitter
		}

		route = append(route, geometry.Round(p))
	}

	return route
}

// deflect moves p out of the hazards it intersects according to the mode.
func (s *Synthesizer) deflect(p geometry.Point, hazards []terrain.Hazard) geometry.Point {
	if s.mode != DeflectFixedPoint {
		p, _ = s.deflectPass(p, hazards)
		return p
	}

	for i := 0; i < s.maxIterations; i++ {
		var moved bool
		p, moved = s.deflectPass(p, hazards)
		if !moved {
			break
		}
	}
	return p
}

// deflectPass tests every hazard in order against the current position.
func (s *Synthesizer) deflectPass(p geometry.Point, hazards []terrain.Hazard) (geometry.Point, bool) {
	moved := false
	for _, h := range hazards {
		if !h.Contains(p, s.safetyMargin) {
			continue
		}
		angle := geometry.AngleFrom(p, h.Center)
		radius := (h.Radius + s.deflectionOffset) * terrain.DeflectionStrength(h.Category)
		p = geometry.Polar(h.Center, angle, radius)
		moved = true
	}
	return p, moved
}

// Preview defaults.
const (
	DefaultPreviewSteps  = 20
	DefaultPreviewSpread = 100.0
)

// PreviewRoute returns a smooth quadratic Bézier curve from origin to
// destination whose control point is the midpoint shifted by up to ±spread/2
// on each axis. It ignores hazards and is meant as a cheap placeholder while
// a real route is computed. Points are not rounded.
func PreviewRoute(origin, destination geometry.Point, steps int, spread float64, src JitterSource) []geometry.Point {
	if steps < 1 {
		steps = DefaultPreviewSteps
	}
	if src == nil {
		src = entropySource{}
	}
	if math.IsNaN(spread) || spread < 0 {
		spread = 0
	}

	control := geometry.Midpoint(origin, destination)
	control.X += (src.Float64() - 0.5) * spread
	control.Y += (src.Float64() - 0.5) * spread

	points := make([]geometry.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		points = append(points, geometry.QuadraticBezier(origin, control, destination, t))
	}
	return points
}
