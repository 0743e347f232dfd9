package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/digitallifelessons/lifelessons-server/internal/http/response"
	"github.com/digitallifelessons/lifelessons-server/internal/ratelimit"
)

// Write throttling defaults: a sustained two writes per second per client
// with room for short bursts.
const (
	WriteRateLimitRPS   = 2
	WriteRateLimitBurst = 30
)

// RateLimitWrites limits mutating requests by client IP. Reads pass through.
// Returns 429 Too Many Requests when the limit is exceeded.
func RateLimitWrites(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded",
					"ip", key,
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
