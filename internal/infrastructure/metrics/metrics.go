package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wallet metrics
	WalletsCreated    prometheus.Counter
	WalletStateChange *prometheus.CounterVec

	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
	LedgerAmount     *prometheus.HistogramVec
	LedgerErrors     *prometheus.CounterVec
	LockTimeouts     prometheus.Counter

	// Withdrawal approval metrics
	WithdrawalDecisions *prometheus.CounterVec

	// Reconciliation metrics
	ReconciledEntries *prometheus.CounterVec

	// Loan saga metrics
	LoanCredits *prometheus.CounterVec

	// Balance cache metrics
	BalanceCacheLookups *prometheus.CounterVec

	// Outbox metrics
	EventsPublished    *prometheus.CounterVec
	EventPublishErrors prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registerer
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all Prometheus metrics and registers them with reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Wallet metrics
		WalletsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		WalletStateChange: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_wallet_state_changes_total",
				Help: "Wallet activations and deactivations",
			},
			[]string{"state"},
		),

		// Ledger metrics
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_ledger_operations_total",
				Help: "Ledger operations by kind and resulting status",
			},
			[]string{"kind", "status"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations including lock wait",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_ledger_amount",
				Help:    "Ledger entry amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),
		LedgerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_ledger_errors_total",
				Help: "Total number of ledger errors by type",
			},
			[]string{"error_type"},
		),
		LockTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_wallet_lock_timeouts_total",
			Help: "Operations aborted while waiting for a wallet lock",
		}),

		WithdrawalDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_withdrawal_decisions_total",
				Help: "Withdrawal approvals and rejections",
			},
			[]string{"decision"},
		),

		ReconciledEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_reconciled_entries_total",
				Help: "Pending entries settled by the reconciliation sweep",
			},
			[]string{"outcome"},
		),

		LoanCredits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_loan_credits_total",
				Help: "Loan credit saga outcomes",
			},
			[]string{"outcome"},
		),

		BalanceCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_balance_cache_lookups_total",
				Help: "Balance cache lookups by result",
			},
			[]string{"result"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_event_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
