package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iho/gowallet/internal/infrastructure/logging"
)

// RetryPolicy bounds how often a transaction is re-run.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy is used by NewRetrier.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     1 * time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier implements usecase.Retrier with exponential backoff. Only deadlocks
// and serialization failures are retried; lock timeouts surface to the caller.
type Retrier struct {
	policy RetryPolicy
	logger *logging.Logger
}

// NewRetrier creates a new PostgreSQL retrier with default settings.
func NewRetrier() *Retrier {
	return NewRetrierWithPolicy(DefaultRetryPolicy)
}

func NewRetrierWithPolicy(policy RetryPolicy) *Retrier {
	return &Retrier{policy: policy, logger: logging.Default()}
}

func (r *Retrier) WithLogger(l *logging.Logger) *Retrier {
	r.logger = l
	return r
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		r.logger.WarnCtx(ctx, "retryable database error, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", wait,
		)
	})
}

// isRetryableError checks if a PostgreSQL error should trigger a retry.
func isRetryableError(err error) bool {
	switch pgErrorCode(err) {
	case pgErrDeadlock, pgErrSerializationFailure:
		return true
	}
	return false
}
