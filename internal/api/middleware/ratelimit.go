package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/MaxMA2000/google-tencent-deathstranding-maps/internal/api/response"
)

// RateLimitConfig is a fixed-window request budget per client IP.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Budgets per endpoint family.
var (
	// NavigationRateLimit covers route synthesis (120 req/min).
	NavigationRateLimit = RateLimitConfig{RequestLimit: 120, WindowLength: time.Minute}

	// DirectionsRateLimit covers the upstream proxy, which spends provider quota (30 req/min).
	DirectionsRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. Run after chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			response.Fail(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		}),
	)
}
