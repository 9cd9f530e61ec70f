package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/ratelimit"
)

// RateLimitMiddleware rate limits requests by client IP.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The event stream reconnects on its own and must never be throttled.
			if r.URL.Path == "/api/v1/events" {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	env, _ := errorEnvelope(domainerrors.RateLimited("Too many requests. Please try again later."))
	_ = json.NewEncoder(w).Encode(env)
}

// getClientIP extracts the client IP from the request.
// RealIP middleware has already folded X-Forwarded-For into RemoteAddr.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
