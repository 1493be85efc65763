package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/ratelimit"
)

// RateLimitConfig holds configuration shared by every route limiter.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	Enabled bool
}

// RateLimit returns middleware that admits requests to route through
// limiter. It must run before Auth so that rejected requests never reach
// token verification.
func RateLimit(route string, limiter *ratelimit.SlidingWindow, cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Allow()
			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				retryAfter := retryAfterSeconds(decision)
				recorder.IncRateLimited(route)
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("route", route),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// retryAfterSeconds rounds up so clients never retry too early. Minimum 1.
func retryAfterSeconds(d ratelimit.Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
