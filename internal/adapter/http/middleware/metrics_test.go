package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		label      string
		statusCode int
	}{
		{
			name:       "labels wallet path with its pattern",
			method:     http.MethodGet,
			path:       "/api/v1/wallets/alice",
			label:      "/api/v1/wallets/{userID}",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "nested pattern",
			method:     http.MethodPost,
			path:       "/api/v1/withdrawals/01HZX/approve",
			label:      "/api/v1/withdrawals/{id}/approve",
			statusCode: http.StatusOK,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			path:       "/nope",
			label:      unmatchedRoute,
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegistry(prometheus.NewRegistry())

			handlerCalled := false
			next := func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			}

			r := chi.NewRouter()
			r.Use(Metrics(m))
			r.Get("/api/v1/wallets/{userID}", next)
			r.Post("/api/v1/withdrawals/{id}/approve", next)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if tc.label != unmatchedRoute && !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			counter := m.HTTPRequests.WithLabelValues(tc.method, tc.label, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestRoutePatternWithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/alice", nil)
	if got := routePattern(req); got != unmatchedRoute {
		t.Fatalf("routePattern() = %q, expected %q", got, unmatchedRoute)
	}
}
