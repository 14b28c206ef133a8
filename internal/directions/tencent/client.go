// Package tencent provides a client for the Tencent Location Service
// direction API (apis.map.qq.com).
package tencent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/directions"
	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/provider/resilience"
)

const (
	// ProviderName identifies this directions provider.
	ProviderName = "tencent"

	// DefaultBaseURL is the Tencent WebService API base URL.
	DefaultBaseURL = "https://apis.map.qq.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes bounds the upstream body read.
	maxBodyBytes = 8 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Tencent client.
type ClientConfig struct {
	// Key is the WebService API key. Calls fail with ErrMissingCredentials when empty.
	Key string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// RatePerSecond caps outbound calls. Zero disables the local limiter.
	RatePerSecond float64

	// Burst is the limiter bucket size (default: 1).
	Burst int

	// Registry receives the resilient client for health reporting (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Tencent direction API client.
type Client struct {
	key        string
	baseURL    string
	httpClient HTTPDoer
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new Tencent client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		key:        cfg.Key,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Directions calls /ws/direction/v1/{mode}/ and returns the body verbatim
// together with the first route's polyline.
func (c *Client) Directions(ctx context.Context, req directions.Request) (*directions.Result, error) {
	if c.key == "" {
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     "MISSING_KEY",
			Message:  "Tencent Maps API key not configured",
			Err:      directions.ErrMissingCredentials,
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = directions.ModeDriving
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &directions.Error{
				Provider: ProviderName,
				Code:     "RATE_LIMIT",
				Message:  "local request quota exhausted",
				Err:      fmt.Errorf("%w: %v", directions.ErrRateLimited, err),
			}
		}
	}

	q := url.Values{}
	q.Set("from", directions.FormatCoordinate(req.From))
	q.Set("to", directions.FormatCoordinate(req.To))
	q.Set("output", "json")
	q.Set("key", c.key)
	endpoint := fmt.Sprintf("%s/ws/direction/v1/%s/?%s", c.baseURL, mode, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("mode", string(mode)).
		Str("from", q.Get("from")).
		Str("to", q.Get("to")).
		Msg("requesting directions from Tencent")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach directions provider",
			Err:      fmt.Errorf("%w: %v", directions.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     "READ_FAILED",
			Message:  "failed to read directions response",
			Err:      fmt.Errorf("%w: %v", directions.ErrProviderUnavailable, err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("directions provider returned status %d", resp.StatusCode),
			Err:      directions.ErrProviderUnavailable,
		}
	}

	var dr directionResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     "DECODE_FAILED",
			Message:  "directions provider returned malformed JSON",
			Err:      fmt.Errorf("%w: %v", directions.ErrProviderUnavailable, err),
		}
	}

	if dr.Status != 0 {
		msg := dr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		c.logger.Debug().
			Int("status", dr.Status).
			Str("message", msg).
			Msg("Tencent returned error status")
		return nil, &directions.Error{
			Provider: ProviderName,
			Code:     "UPSTREAM_STATUS",
			Status:   dr.Status,
			Message:  msg,
			Err:      directions.ErrUpstreamStatus,
		}
	}

	result := &directions.Result{
		Provider:  ProviderName,
		Body:      json.RawMessage(body),
		FetchedAt: time.Now(),
	}

	// Transit answers carry no route-level polyline; that is not an error.
	var rr directionResult
	if len(dr.Result) > 0 && json.Unmarshal(dr.Result, &rr) == nil && len(rr.Routes) > 0 {
		first := rr.Routes[0]
		result.Polyline = first.Polyline
		result.DistanceMeters = first.Distance
		result.DurationMinutes = first.Duration
	}

	c.logger.Debug().
		Int("polyline_values", len(result.Polyline)).
		Float64("distance_m", result.DistanceMeters).
		Msg("received directions from Tencent")

	return result, nil
}
