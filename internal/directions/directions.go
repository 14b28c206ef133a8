// Package directions proxies an upstream directions provider, caches its
// answers and turns compressed polylines into renderable paths.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/pkg/polyline"
)

// Sentinel errors for directions operations.
var (
	// ErrUpstreamStatus indicates the provider answered with a non-zero status.
	ErrUpstreamStatus = errors.New("upstream returned an error status")
	// ErrProviderUnavailable indicates a transport failure, a 5xx or an open circuit.
	ErrProviderUnavailable = errors.New("directions provider unavailable")
	// ErrMissingCredentials indicates no API key is configured.
	ErrMissingCredentials = errors.New("directions provider key not configured")
	// ErrInvalidRequest indicates missing or malformed request parameters.
	ErrInvalidRequest = errors.New("invalid directions request")
	// ErrRateLimited indicates the local quota guard rejected the call.
	ErrRateLimited = errors.New("directions rate limit exceeded")
)

// Provider fetches directions from an upstream service.
type Provider interface {
	// Directions retrieves a route. A non-zero upstream status is reported as
	// an *Error wrapping ErrUpstreamStatus.
	Directions(ctx context.Context, req Request) (*Result, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Mode is a travel mode understood by the upstream service.
type Mode string

const (
	ModeDriving   Mode = "driving"
	ModeWalking   Mode = "walking"
	ModeBicycling Mode = "bicycling"
	ModeTransit   Mode = "transit"
)

// ParseMode validates a mode query value. Empty selects ModeDriving.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeDriving, nil
	case ModeDriving, ModeWalking, ModeBicycling, ModeTransit:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unsupported mode %q", ErrInvalidRequest, s)
	}
}

// Request asks for a route between two coordinates.
type Request struct {
	From polyline.Coordinate
	To   polyline.Coordinate
	Mode Mode
}

// ParseCoordinate parses the "lat,lng" form used in query strings.
func ParseCoordinate(s string) (polyline.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return polyline.Coordinate{}, fmt.Errorf("%w: coordinate %q is not lat,lng", ErrInvalidRequest, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("%w: latitude %q: %v", ErrInvalidRequest, latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("%w: longitude %q: %v", ErrInvalidRequest, lngStr, err)
	}

	c := polyline.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return polyline.Coordinate{}, fmt.Errorf("%w: coordinate %q out of range", ErrInvalidRequest, s)
	}
	return c, nil
}

// FormatCoordinate renders c in the "lat,lng" query form.
func FormatCoordinate(c polyline.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Result is a successful upstream answer.
type Result struct {
	// Provider that produced the answer.
	Provider string `json:"provider"`
	// Body is the upstream JSON document, passed through to clients unchanged.
	Body json.RawMessage `json:"body"`
	// Polyline is the compressed coordinate stream of the first route.
	Polyline []float64 `json:"polyline,omitempty"`
	// DistanceMeters of the first route.
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	// DurationMinutes of the first route.
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
	// FetchedAt is when the upstream answered.
	FetchedAt time.Time `json:"fetched_at"`
}

// Error carries provider failure details. Status and Message hold the
// upstream status code and text when Err is ErrUpstreamStatus.
type Error struct {
	Provider string
	Code     string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimited)
}

// IsRetryable reports whether err is a transient directions failure.
func IsRetryable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.IsRetryable()
}
