package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitallifelessons/lifelessons-server/internal/ratelimit"
)

func TestRateLimitWrites(t *testing.T) {
	limiter := ratelimit.New(0.01, 1)
	t.Cleanup(limiter.Stop)

	handler := RateLimitWrites(limiter, slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	do := func(method, ip string) int {
		req := httptest.NewRequest(method, "/lessons", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "10.0.0.2"), "limits are per client")
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "10.0.0.1"), "reads are never limited")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:4000", "192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:80", "198.51.100.2"},
		{"no port", nil, "192.0.2.9", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := corsHandler([]string{"https://lessons.example.com"})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}),
	)

	req := httptest.NewRequest(http.MethodOptions, "/lessons", nil)
	req.Header.Set("Origin", "https://lessons.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://lessons.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
