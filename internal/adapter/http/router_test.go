package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"amount":"10.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/alice/deposits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected deposit to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.checkCalled || !store.updateCalled {
		t.Fatalf("expected idempotency store to be used, got %+v", store)
	}
}

func TestNewRouter_ActorReachesHandlers(t *testing.T) {
	var seen domain.Actor
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.WalletHandler = handler.NewWalletHandler(&stubWalletService{
			onGet: func(ctx context.Context) {
				seen, _ = domain.ActorFromContext(ctx)
			},
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/alice", nil)
	req.Header.Set(apimiddleware.UserIDHeader, "ops")
	req.Header.Set(apimiddleware.UserRoleHeader, "admin")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if seen.ID != "ops" || seen.Role != domain.RoleAdmin {
		t.Fatalf("expected actor from headers, got %+v", seen)
	}
}

func TestNewRouter_ExposesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegistry(registry)
		cfg.MetricsGatherer = registry
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wallets/alice/balance", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `path="/api/v1/wallets/{userID}/balance"`) {
		t.Fatalf("expected route pattern label in metrics, got %s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/wallets/",
		"GET /api/v1/wallets/{userID}",
		"GET /api/v1/wallets/{userID}/balance",
		"POST /api/v1/wallets/{userID}/activate",
		"POST /api/v1/wallets/{userID}/deactivate",
		"POST /api/v1/wallets/{userID}/deposits",
		"POST /api/v1/wallets/{userID}/withdrawals",
		"GET /api/v1/wallets/{userID}/entries",
		"GET /api/v1/wallets/{userID}/verify",
		"GET /api/v1/entries/",
		"GET /api/v1/entries/{id}",
		"GET /api/v1/withdrawals/pending",
		"POST /api/v1/withdrawals/{id}/approve",
		"POST /api/v1/withdrawals/{id}/reject",
		"POST /api/v1/loans/{id}/approve",
		"POST /api/v1/reconcile/pending",
		"GET /api/v1/reconcile/report",
		"GET /api/v1/audit",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	history := &stubHistoryService{}

	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandlerWithChecks(),
		WalletHandler:      handler.NewWalletHandler(&stubWalletService{}),
		TransactionHandler: handler.NewTransactionHandler(&stubTransactionService{}),
		EntryHandler:       handler.NewEntryHandler(history),
		WithdrawalHandler:  handler.NewWithdrawalHandler(&stubWithdrawalService{}, history),
		ReconcileHandler:   handler.NewReconcileHandler(&stubReconciliationService{}, time.Minute),
		LoanHandler:        handler.NewLoanHandler(&stubLoanService{}),
		AuditHandler:       handler.NewAuditHandler(stubAuditService{}),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubWalletService struct {
	onGet func(ctx context.Context)
}

func (s *stubWalletService) CreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return &domain.Wallet{ID: "w", UserID: userID, IsActive: true}, nil
}

func (s *stubWalletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if s.onGet != nil {
		s.onGet(ctx)
	}
	return &domain.Wallet{ID: "w", UserID: userID}, nil
}

func (s *stubWalletService) GetBalance(ctx context.Context, userID string) (domain.Money, error) {
	return domain.ZeroMoney, nil
}

func (s *stubWalletService) ActivateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return &domain.Wallet{ID: "w", UserID: userID, IsActive: true}, nil
}

func (s *stubWalletService) DeactivateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return &domain.Wallet{ID: "w", UserID: userID}, nil
}

type stubTransactionService struct{}

func (stubTransactionService) Deposit(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "deposit", Amount: input.Amount, Status: domain.EntryStatusCompleted}, nil
}

func (stubTransactionService) Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "withdraw", Amount: input.Amount, Status: domain.EntryStatusPending}, nil
}

type stubHistoryService struct{}

func (stubHistoryService) GetHistory(ctx context.Context, query usecase.HistoryQuery) (*usecase.HistoryPage, error) {
	return &usecase.HistoryPage{}, nil
}

func (stubHistoryService) ListAll(ctx context.Context, query usecase.HistoryQuery) (*usecase.HistoryPage, error) {
	return &usecase.HistoryPage{}, nil
}

func (stubHistoryService) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: id}, nil
}

func (stubHistoryService) GetEntryForUser(ctx context.Context, id, userID string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: id}, nil
}

func (stubHistoryService) ListPendingWithdrawals(ctx context.Context, limit, offset int, includeWallets bool) (*usecase.HistoryPage, error) {
	return &usecase.HistoryPage{}, nil
}

type stubWithdrawalService struct{}

func (stubWithdrawalService) ApproveWithdraw(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: entryID, Status: domain.EntryStatusCompleted}, nil
}

func (stubWithdrawalService) RejectWithdraw(ctx context.Context, entryID, reason string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: entryID, Status: domain.EntryStatusFailed}, nil
}

type stubReconciliationService struct{}

func (stubReconciliationService) VerifyWallet(ctx context.Context, userID string) (*domain.ChainReport, error) {
	return &domain.ChainReport{Valid: true}, nil
}

func (stubReconciliationService) SweepPending(ctx context.Context, olderThan time.Duration) (*usecase.SweepResult, error) {
	return &usecase.SweepResult{}, nil
}

func (stubReconciliationService) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{}, nil
}

type stubAuditService struct{}

func (stubAuditService) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	return nil, nil
}

type stubLoanService struct{}

func (stubLoanService) ApproveLoan(ctx context.Context, loanID string) (*usecase.ApproveLoanResult, error) {
	return &usecase.ApproveLoanResult{Loan: &domain.Loan{ID: loanID, Status: domain.LoanStatusConfirmed}}, nil
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
