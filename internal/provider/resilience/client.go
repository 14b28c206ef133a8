package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned without contacting the provider while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig configures a resilient provider client.
type ClientConfig struct {
	// Name identifies the provider in logs, breaker events and the registry.
	Name string

	// Timeout bounds a single attempt (default: 10s).
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after the first (default: 2).
	// Set NoRetry to disable retries entirely.
	MaxRetries uint64

	// NoRetry disables retries regardless of MaxRetries.
	NoRetry bool

	// InitialInterval is the first backoff delay (default: 100ms).
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay (default: 2s).
	MaxInterval time.Duration

	// Breaker configures the circuit breaker. Nil selects DefaultBreakerConfig(Name).
	Breaker *BreakerConfig

	// Registry, when set, receives the client and its success/failure history.
	Registry *Registry

	// Transport overrides the underlying round tripper (tests, tracing).
	Transport http.RoundTripper

	// Logger for breaker transitions and retries.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the settings used for map providers.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker:         &breaker,
	}
}

// Client executes HTTP requests through a circuit breaker with bounded retry.
// It satisfies the HTTPDoer interfaces of the provider packages.
type Client struct {
	name     string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
	logger   zerolog.Logger

	retries         uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewClient creates a client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.NoRetry {
		cfg.MaxRetries = 0
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
		if breakerCfg.Name == "" {
			breakerCfg.Name = cfg.Name
		}
	}

	c := &Client{
		name:            cfg.Name,
		http:            &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		breaker:         newBreaker[*http.Response](breakerCfg, cfg.Logger), //nolint:bodyclose // type param
		registry:        cfg.Registry,
		logger:          cfg.Logger,
		retries:         cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
	}

	if c.registry != nil {
		c.registry.Register(c.name, c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Do sends req, retrying transport errors and 5xx responses with exponential
// backoff. 4xx responses are returned as-is. When retries are exhausted on a
// 5xx the last response is returned without error so callers can inspect it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)

	var last *http.Response
	attempt := 0

	op := func() error {
		attempt++
		if last != nil {
			// Drop the previous 5xx body before trying again.
			last.Body.Close()
			last = nil
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.http.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case err != nil:
			last = resp
			c.logger.Debug().Err(err).
				Str("provider", c.name).
				Int("attempt", attempt).
				Msg("provider request failed")
			return err
		}

		last = resp
		return nil
	}

	err := backoff.Retry(op, policy)

	switch {
	case err == nil:
		c.registry.RecordSuccess(c.name)
		return last, nil
	case last != nil:
		c.registry.RecordFailure(c.name, err)
		return last, nil
	default:
		c.registry.RecordFailure(c.name, err)
		return nil, err
	}
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker counters for the current generation.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// ServerError marks a 5xx response so the breaker counts it as a failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "provider returned " + http.StatusText(e.StatusCode)
}
