package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// lockScope returns two contexts sharing one deadline. lockCtx follows the
// caller and is used to begin the transaction and wait for row locks.
// workCtx ignores caller cancellation and is used once the lock is held, so
// an operation that owns the lock always runs to commit or rollback.
func lockScope(ctx context.Context, timeout time.Duration) (lockCtx, workCtx context.Context, cancel context.CancelFunc) {
	deadline := time.Now().Add(timeout)

	lockCtx, cancelLock := context.WithDeadline(ctx, deadline)
	workCtx, cancelWork := context.WithDeadline(context.WithoutCancel(ctx), deadline)

	return lockCtx, workCtx, func() {
		cancelLock()
		cancelWork()
	}
}

// lockError normalises errors seen while waiting for a row lock.
func lockError(ctx, lockCtx context.Context, err error) error {
	if err == nil {
		return nil
	}

	// The transaction deadline expired while the caller was still waiting.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && lockCtx.Err() != nil {
		return domain.ErrLockTimeout
	}

	return err
}

func runWithRetry(ctx context.Context, r Retrier, op func() error) error {
	if r == nil {
		return op()
	}

	return r.Retry(ctx, op)
}

func actorOf(ctx context.Context) domain.Actor {
	if a, ok := domain.ActorFromContext(ctx); ok && a.ID != "" {
		return a
	}

	return domain.SystemActor
}

func emitEvent(
	ctx context.Context,
	tx Transaction,
	repo OutboxRepository,
	idGen IDGenerator,
	aggregateType, aggregateID, eventType string,
	payload map[string]any,
	now time.Time,
) error {
	if repo == nil {
		return nil
	}

	return repo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	})
}

type auditRecord struct {
	action       domain.AuditAction
	resourceType string
	resourceID   string
	before       domain.JSON
	after        domain.JSON
}

func writeAudit(
	ctx context.Context,
	tx Transaction,
	repo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	rec auditRecord,
	now time.Time,
) error {
	if repo == nil {
		return nil
	}

	actor := actorOf(ctx)
	requestID, _ := ctx.Value(logging.RequestIDKey).(string)

	auditLog := &domain.AuditLog{
		ID:           idGen.Generate(),
		ActorID:      actor.ID,
		ActorRole:    string(actor.Role),
		Action:       rec.action,
		ResourceType: rec.resourceType,
		ResourceID:   rec.resourceID,
		RequestID:    requestID,
		BeforeState:  rec.before,
		AfterState:   rec.after,
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    now,
	}
	if err := repo.CreateTx(ctx, tx, auditLog); err != nil {
		return err
	}

	if m != nil {
		m.AuditLogsCreated.WithLabelValues(string(rec.action), string(domain.AuditStatusSuccess)).Inc()
	}

	return nil
}

func invalidateBalance(ctx context.Context, cache BalanceCache, logger *logging.Logger, userID string) {
	if cache == nil {
		return
	}

	if err := cache.Invalidate(context.WithoutCancel(ctx), userID); err != nil {
		logger.WarnCtx(ctx, "failed to invalidate cached balance", "user_id", userID, "error", err)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrOverflow):
		return "balance_overflow"
	case errors.Is(err, domain.ErrWalletNotFound):
		return "wallet_not_found"
	case errors.Is(err, domain.ErrWalletInactive):
		return "wallet_inactive"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "storage"
	}
}
