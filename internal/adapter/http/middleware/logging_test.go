package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
)

func TestLoggingMiddleware_LogsCompletedRequest(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := chimiddleware.RequestID(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusUnprocessableEntity)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/wallets/alice/withdrawals", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected handler and access log lines, got %q", buf.String())
	}

	var inner, access map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &inner); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &access); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}

	if inner["request_id"] == "" || inner["request_id"] != access["request_id"] {
		t.Fatalf("expected request id to be shared, got %v and %v", inner["request_id"], access["request_id"])
	}
	if access["level"] != "warn" || access["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("unexpected access log %v", access)
	}
	if access["path"] != "/api/v1/wallets/alice/withdrawals" || access["method"] != http.MethodPost {
		t.Fatalf("unexpected access log %v", access)
	}
}

func TestRecovery_ReturnsInternalServerError(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := mw.Wrap(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged, got %q", buf.String())
	}
}

func TestActor_StoresCallerInContext(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    *domain.Actor
	}{
		{"anonymous", nil, nil},
		{"user", map[string]string{UserIDHeader: "alice"}, &domain.Actor{ID: "alice", Role: domain.RoleUser}},
		{"admin", map[string]string{UserIDHeader: "ops", UserRoleHeader: "Admin"}, &domain.Actor{ID: "ops", Role: domain.RoleAdmin}},
		{"system is not accepted from the wire", map[string]string{UserIDHeader: "x", UserRoleHeader: "system"}, &domain.Actor{ID: "x", Role: domain.RoleUser}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got      domain.Actor
				ok       bool
				loggedID any
			)
			handler := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = domain.ActorFromContext(r.Context())
				loggedID = r.Context().Value(logging.UserIDKey)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tc.want == nil {
				if ok {
					t.Fatalf("expected no actor, got %+v", got)
				}
				return
			}
			if !ok || got != *tc.want {
				t.Fatalf("expected %+v, got %+v", *tc.want, got)
			}
			if loggedID != tc.want.ID {
				t.Fatalf("expected user id in logging context, got %v", loggedID)
			}
		})
	}
}
