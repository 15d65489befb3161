package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

func TestGetIP(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"remote addr without port", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"remote addr without port separator", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.1:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:1", "198.51.100.4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := getIP(req); got != tc.expected {
				t.Fatalf("getIP() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

func TestRateLimiter_LimitsPerClient(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	rl := NewRateLimiter(1, 2).WithMetrics(m)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("1.1.1.1:1000"); code != http.StatusOK {
			t.Fatalf("request %d within burst got %d", i, code)
		}
	}
	if code := send("1.1.1.1:1001"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the burst, got %d", code)
	}
	if code := send("2.2.2.2:1000"); code != http.StatusOK {
		t.Fatalf("expected another client to be unaffected, got %d", code)
	}

	if got := testutil.ToFloat64(m.RateLimitHits.WithLabelValues("1.1.1.1")); got != 1 {
		t.Fatalf("expected one rate limit hit, got %v", got)
	}
}

func TestRateLimiter_CleanupLimiters(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	if removed := rl.CleanupLimiters(30 * time.Minute); removed != 1 {
		t.Fatalf("expected one idle limiter to be removed, got %d", removed)
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Fatal("expected recently used limiter to be kept")
	}
}
