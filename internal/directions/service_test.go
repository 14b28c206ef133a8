package directions_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/metrics"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

type mockProvider struct {
	result    *directions.Result
	err       error
	callCount atomic.Int32
}

func (m *mockProvider) Directions(_ context.Context, _ directions.Request) (*directions.Result, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	r := *m.result
	return &r, nil
}

func (m *mockProvider) Name() string { return "mock" }

var shenzhenRequest = directions.Request{
	From: directions.ShenzhenNorth,
	To:   directions.ShenzhenBayPark,
	Mode: directions.ModeDriving,
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T, p directions.Provider, c *clock, m *metrics.Metrics) *directions.Service {
	t.Helper()
	svc, err := directions.NewService(directions.ServiceConfig{
		Provider:        p,
		CacheTTL:        time.Minute,
		StaleIfErrorTTL: 10 * time.Minute,
		Metrics:         m,
		Logger:          zerolog.Nop(),
		Now:             c.Now,
	})
	require.NoError(t, err)
	return svc
}

func okResult() *directions.Result {
	return &directions.Result{
		Provider: "mock",
		Body:     []byte(`{"status":0}`),
		Polyline: []float64{22.608699, 114.029799, -3700, -4800, -5000, -5000},
	}
}

func TestNewService_RequiresProvider(t *testing.T) {
	_, err := directions.NewService(directions.ServiceConfig{})
	assert.Error(t, err)
}

func TestService_Directions_CachesAnswers(t *testing.T) {
	p := &mockProvider{result: okResult()}
	c := &clock{now: time.Now()}
	svc := newTestService(t, p, c, nil)

	first, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)
	second, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.callCount.Load())
	assert.Equal(t, first.Body, second.Body)

	// A different mode is a different key.
	req := shenzhenRequest
	req.Mode = directions.ModeWalking
	_, err = svc.Directions(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.callCount.Load())
}

func TestService_Directions_RefetchesAfterTTL(t *testing.T) {
	p := &mockProvider{result: okResult()}
	c := &clock{now: time.Now()}
	svc := newTestService(t, p, c, nil)

	_, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)

	c.now = c.now.Add(2 * time.Minute)
	_, err = svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)

	assert.Equal(t, int32(2), p.callCount.Load())
}

func TestService_Directions_ServesStaleOnTransientError(t *testing.T) {
	p := &mockProvider{result: okResult()}
	c := &clock{now: time.Now()}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, p, c, metrics.New(reg))

	_, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)

	p.err = &directions.Error{Message: "down", Err: directions.ErrProviderUnavailable}
	c.now = c.now.Add(5 * time.Minute)

	result, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)
	assert.Equal(t, okResult().Polyline, result.Polyline)

	n, err := testutil.GatherAndCount(reg, "strand_directions_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "miss and stale label sets")

	// Beyond the stale window the error surfaces.
	c.now = c.now.Add(10 * time.Minute)
	_, err = svc.Directions(context.Background(), shenzhenRequest)
	assert.ErrorIs(t, err, directions.ErrProviderUnavailable)
}

func TestService_Directions_UpstreamStatusNotMaskedByStale(t *testing.T) {
	p := &mockProvider{result: okResult()}
	c := &clock{now: time.Now()}
	svc := newTestService(t, p, c, nil)

	_, err := svc.Directions(context.Background(), shenzhenRequest)
	require.NoError(t, err)

	p.err = &directions.Error{Message: "bad key", Status: 311, Err: directions.ErrUpstreamStatus}
	c.now = c.now.Add(2 * time.Minute)

	_, err = svc.Directions(context.Background(), shenzhenRequest)
	assert.ErrorIs(t, err, directions.ErrUpstreamStatus)
}

func TestService_Path_Upstream(t *testing.T) {
	p := &mockProvider{result: okResult()}
	svc := newTestService(t, p, &clock{now: time.Now()}, nil)

	path := svc.Path(context.Background(), shenzhenRequest)

	assert.Equal(t, directions.SourceUpstream, path.Source)
	assert.Empty(t, path.Reason)
	require.Len(t, path.Points, 3)
	assert.InDelta(t, 22.608699, path.Points[0].Lat, 1e-9)
	assert.InDelta(t, 114.019999, path.Points[2].Lng, 1e-9)
	assert.InDelta(t, 22.599999-directions.BoundsPadding, path.Bounds.Min.Lat(), 1e-9)
	assert.InDelta(t, 114.029799+directions.BoundsPadding, path.Bounds.Max.Lon(), 1e-9)
	assert.Greater(t, path.LengthMeters, 1000.0)
}

func TestService_Path_FallbackOnError(t *testing.T) {
	p := &mockProvider{err: &directions.Error{Message: "no key", Err: directions.ErrMissingCredentials}}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, p, &clock{now: time.Now()}, metrics.New(reg))

	path := svc.Path(context.Background(), shenzhenRequest)

	assert.Equal(t, directions.SourceFallback, path.Source)
	assert.NotEmpty(t, path.Reason)
	assert.Len(t, path.Points, 20)
	expected := `
# HELP strand_directions_fallback_paths_total Requests answered with the static fallback path
# TYPE strand_directions_fallback_paths_total counter
strand_directions_fallback_paths_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "strand_directions_fallback_paths_total"))
}

func TestService_Path_FallbackOnShortPolyline(t *testing.T) {
	result := okResult()
	result.Polyline = []float64{22.6, 114.0}
	svc := newTestService(t, &mockProvider{result: result}, &clock{now: time.Now()}, nil)

	path := svc.Path(context.Background(), shenzhenRequest)

	assert.Equal(t, directions.SourceFallback, path.Source)
	assert.Contains(t, path.Reason, "insufficient")
}

func TestService_Path_FallbackWhenAllPointsDropped(t *testing.T) {
	result := okResult()
	result.Polyline = []float64{22608700, 114029800, -3700, -4800}
	svc := newTestService(t, &mockProvider{result: result}, &clock{now: time.Now()}, nil)

	from := polyline.Coordinate{Lat: 1, Lng: 2}
	to := polyline.Coordinate{Lat: 3, Lng: 4}
	path := svc.Path(context.Background(), directions.Request{From: from, To: to})

	assert.Equal(t, directions.SourceFallback, path.Source)
	assert.Equal(t, []polyline.Coordinate{from, {Lat: 2, Lng: 3}, to}, path.Points)
}
