package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrierWithPolicy(RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}).WithLogger(logging.Discard())
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("create entry: %w", &pgconn.PgError{Code: pgErrSerializationFailure})
	})

	require.Error(t, err)
	assert.Equal(t, pgErrSerializationFailure, pgErrorCode(err))
	assert.Equal(t, 3, attempts)
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	assert.ErrorIs(t, err, permanentErr)
	assert.Equal(t, 1, attempts)
}

func TestRetrierDoesNotRetryLockTimeout(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return lockErr(&pgconn.PgError{Code: pgErrLockNotAvailable})
	})

	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"wrapped deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgErrDeadlock}), true},
		{"unique violation", &pgconn.PgError{Code: pgErrUniqueViolation}, false},
		{"generic", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
