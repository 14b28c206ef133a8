package directions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

func TestParseMode(t *testing.T) {
	for _, in := range []string{"", "driving", "DRIVING", " walking ", "bicycling", "transit"} {
		_, err := directions.ParseMode(in)
		assert.NoError(t, err, in)
	}

	m, err := directions.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, directions.ModeDriving, m)

	_, err = directions.ParseMode("teleport")
	assert.ErrorIs(t, err, directions.ErrInvalidRequest)
}

func TestParseCoordinate(t *testing.T) {
	c, err := directions.ParseCoordinate("22.6087,114.0298")
	require.NoError(t, err)
	assert.Equal(t, polyline.Coordinate{Lat: 22.6087, Lng: 114.0298}, c)

	c, err = directions.ParseCoordinate(" -33.9 , 151.2 ")
	require.NoError(t, err)
	assert.Equal(t, polyline.Coordinate{Lat: -33.9, Lng: 151.2}, c)

	for _, bad := range []string{"", "22.6", "a,b", "91,0", "0,181", "22.6,x"} {
		_, err := directions.ParseCoordinate(bad)
		assert.ErrorIs(t, err, directions.ErrInvalidRequest, bad)
	}
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "22.6087,114.0298", directions.FormatCoordinate(polyline.Coordinate{Lat: 22.6087, Lng: 114.0298}))
}

func TestError(t *testing.T) {
	err := &directions.Error{Provider: "tencent", Message: "boom", Err: directions.ErrProviderUnavailable}
	assert.Equal(t, "boom: directions provider unavailable", err.Error())
	assert.True(t, err.IsRetryable())
	assert.True(t, directions.IsRetryable(err))

	status := &directions.Error{Message: "bad key", Status: 311, Err: directions.ErrUpstreamStatus}
	assert.False(t, status.IsRetryable())
	assert.ErrorIs(t, status, directions.ErrUpstreamStatus)

	assert.False(t, directions.IsRetryable(assert.AnError))
}

func TestStaticFallback(t *testing.T) {
	path := directions.StaticFallback(directions.ShenzhenNorth, directions.ShenzhenBayPark)
	require.Len(t, path, 20)
	assert.Equal(t, directions.ShenzhenNorth, path[0])
	assert.Equal(t, directions.ShenzhenBayPark, path[19])

	reversed := directions.StaticFallback(directions.ShenzhenBayPark, directions.ShenzhenNorth)
	require.Len(t, reversed, 20)
	assert.Equal(t, directions.ShenzhenBayPark, reversed[0])
	assert.Equal(t, directions.ShenzhenNorth, reversed[19])

	// Callers may modify the result without affecting later calls.
	path[1] = polyline.Coordinate{}
	again := directions.StaticFallback(directions.ShenzhenNorth, directions.ShenzhenBayPark)
	assert.NotEqual(t, polyline.Coordinate{}, again[1])

	from := polyline.Coordinate{Lat: 10, Lng: 20}
	to := polyline.Coordinate{Lat: 12, Lng: 24}
	assert.Equal(t, []polyline.Coordinate{from, {Lat: 11, Lng: 22}, to}, directions.StaticFallback(from, to))
}
