// Package metrics exposes Prometheus counters and histograms for the
// navigation and directions domains.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "strand"

// Metrics holds the domain instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	routesSynthesized *prometheus.CounterVec
	routeDifficulty   prometheus.Histogram
	routeWaypoints    prometheus.Histogram
	previews          prometheus.Counter
	validationErrors  *prometheus.CounterVec

	decodeResults    *prometheus.CounterVec
	decodedPoints    prometheus.Histogram
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	fallbackPaths    prometheus.Counter
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in tests
// to keep registrations isolated.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		routesSynthesized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "routes_synthesized_total",
			Help:      "Total synthesized routes by quality bucket",
		}, []string{"quality"}),

		routeDifficulty: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "route_difficulty",
			Help:      "Difficulty score of synthesized routes",
			Buckets:   []float64{1, 1.5, 2, 2.5, 3, 4, 5, 8},
		}),

		routeWaypoints: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "route_waypoints",
			Help:      "Number of waypoints per synthesized route",
			Buckets:   prometheus.LinearBuckets(5, 10, 6),
		}),

		previews: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "previews_total",
			Help:      "Total preview curves generated",
		}),

		validationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "navigation",
			Name:      "validation_errors_total",
			Help:      "Rejected navigation requests by reason",
		}, []string{"reason"}),

		decodeResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "decode_results_total",
			Help:      "Polyline decode outcomes",
		}, []string{"outcome"}),

		decodedPoints: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "decoded_points",
			Help:      "Number of coordinates recovered per decoded polyline",
			Buckets:   prometheus.ExponentialBuckets(2, 4, 6),
		}),

		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "upstream_requests_total",
			Help:      "Directions provider requests by outcome",
		}, []string{"provider", "outcome"}),

		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "upstream_request_duration_seconds",
			Help:      "Directions provider latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "cache_lookups_total",
			Help:      "Directions cache lookups by result",
		}, []string{"result"}),

		fallbackPaths: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directions",
			Name:      "fallback_paths_total",
			Help:      "Requests answered with the static fallback path",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRoute records a synthesized route.
func (m *Metrics) ObserveRoute(quality string, difficulty float64, waypoints int) {
	if m == nil {
		return
	}
	m.routesSynthesized.WithLabelValues(quality).Inc()
	m.routeDifficulty.Observe(difficulty)
	m.routeWaypoints.Observe(float64(waypoints))
}

// ObservePreview records a generated preview curve.
func (m *Metrics) ObservePreview() {
	if m == nil {
		return
	}
	m.previews.Inc()
}

// ObserveValidationError records a rejected navigation request.
func (m *Metrics) ObserveValidationError(reason string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(reason).Inc()
}

// ObserveDecode records a polyline decode with its outcome
// ("ok", "empty" or "insufficient_data") and the number of points recovered.
func (m *Metrics) ObserveDecode(outcome string, points int) {
	if m == nil {
		return
	}
	m.decodeResults.WithLabelValues(outcome).Inc()
	m.decodedPoints.Observe(float64(points))
}

// ObserveUpstream records a provider request.
func (m *Metrics) ObserveUpstream(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(provider, outcome).Inc()
	m.upstreamDuration.WithLabelValues(provider).Observe(seconds)
}

// ObserveCache records a cache lookup ("hit", "miss" or "stale").
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveFallback records a response served from the static fallback path.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.fallbackPaths.Inc()
}
