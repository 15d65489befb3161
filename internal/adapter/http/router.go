package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler      *handler.WalletHandler
	TransactionHandler *handler.TransactionHandler
	EntryHandler       *handler.EntryHandler
	WithdrawalHandler  *handler.WithdrawalHandler
	ReconcileHandler   *handler.ReconcileHandler
	LoanHandler        *handler.LoanHandler
	AuditHandler       *handler.AuditHandler
	HealthHandler      *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// ActorVerifier checks gateway bearer tokens; identity headers are trusted when nil.
	ActorVerifier middleware.ActorTokenVerifier
	// MetricsGatherer serves /metrics; the default registry when nil.
	MetricsGatherer prometheus.Gatherer
	// Logger writes access logs; discarded when nil.
	Logger *zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NewActorMiddleware(cfg.ActorVerifier))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallets
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/{userID}", cfg.WalletHandler.Get)
			r.Get("/{userID}/balance", cfg.WalletHandler.Balance)
			r.Post("/{userID}/activate", cfg.WalletHandler.Activate)
			r.Post("/{userID}/deactivate", cfg.WalletHandler.Deactivate)
			r.Post("/{userID}/deposits", cfg.TransactionHandler.Deposit)
			r.Post("/{userID}/withdrawals", cfg.TransactionHandler.Withdraw)
			r.Get("/{userID}/entries", cfg.EntryHandler.ListByWallet)
			r.Get("/{userID}/verify", cfg.ReconcileHandler.Verify)
		})

		// Ledger entries
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
		})

		// Withdrawal approval
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/pending", cfg.WithdrawalHandler.Pending)
			r.Post("/{id}/approve", cfg.WithdrawalHandler.Approve)
			r.Post("/{id}/reject", cfg.WithdrawalHandler.Reject)
		})

		r.Post("/loans/{id}/approve", cfg.LoanHandler.Approve)
		r.Post("/reconcile/pending", cfg.ReconcileHandler.SweepPending)
		r.Get("/reconcile/report", cfg.ReconcileHandler.Report)
		r.Get("/audit", cfg.AuditHandler.List)
	})

	return r
}
