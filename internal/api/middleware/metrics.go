package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/telemetry"
)

// HTTPMetrics records OpenTelemetry server metrics.
type HTTPMetrics struct {
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewHTTPMetrics creates the instruments on the global meter provider.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	meter := telemetry.Meter()

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating in-flight counter: %w", err)
	}

	size, err := meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating size histogram: %w", err)
	}

	return &HTTPMetrics{duration: duration, inFlight: inFlight, size: size}, nil
}

// Middleware records one observation per request, labelled by route pattern.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		method := metric.WithAttributes(attribute.String("http.request.method", r.Method))

		m.inFlight.Add(ctx, 1, method)
		defer m.inFlight.Add(ctx, -1, method)

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		attrs := metric.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", routePattern(r)),
			attribute.String("http.response.status_code", strconv.Itoa(rec.status)),
		)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.size.Record(ctx, rec.written, attrs)
	})
}
