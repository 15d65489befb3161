package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from holding wallet locks
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultBalanceCacheTTL bounds how stale a cached balance read may be
	DefaultBalanceCacheTTL = 5 * time.Second

	// DefaultReconcileBatch is how many stale pending entries one sweep inspects
	DefaultReconcileBatch = 100

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// failureRecordTimeout bounds the best-effort write of a FAILED audit entry
	failureRecordTimeout = 3 * time.Second
)
