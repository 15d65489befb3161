package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// WithdrawalUseCase handles admin decisions on pending withdrawals.
type WithdrawalUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics

	retrier   Retrier
	cache     BalanceCache
	logger    *logging.Logger
	txTimeout time.Duration
	now       func() time.Time
}

func NewWithdrawalUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logging.Default(),
		txTimeout:  DefaultTransactionTimeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *WithdrawalUseCase) WithRetrier(r Retrier) *WithdrawalUseCase {
	uc.retrier = r
	return uc
}

func (uc *WithdrawalUseCase) WithBalanceCache(c BalanceCache) *WithdrawalUseCase {
	uc.cache = c
	return uc
}

func (uc *WithdrawalUseCase) WithLogger(l *logging.Logger) *WithdrawalUseCase {
	uc.logger = l
	return uc
}

func (uc *WithdrawalUseCase) WithTransactionTimeout(d time.Duration) *WithdrawalUseCase {
	if d > 0 {
		uc.txTimeout = d
	}
	return uc
}

// ApproveWithdraw completes a pending withdrawal. The balance was debited at
// request time and does not change.
func (uc *WithdrawalUseCase) ApproveWithdraw(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	var result *domain.LedgerEntry

	err := runWithRetry(ctx, uc.retrier, func() error {
		var err error
		result, err = uc.decide(ctx, entryID, func(
			workCtx context.Context, tx Transaction, wallet *domain.Wallet, entry *domain.LedgerEntry, now time.Time,
		) (string, domain.AuditAction, string, error) {
			if err := entry.Approve(now); err != nil {
				return "", "", "", err
			}

			if err := uc.entryRepo.UpdateStatus(workCtx, tx, entry.ID, entry.Status, entry.Description, now); err != nil {
				return "", "", "", fmt.Errorf("approve withdrawal: %w", err)
			}

			return domain.EventTypeWithdrawApproved, domain.AuditActionWithdrawApprove, "", nil
		})
		return err
	})
	if err != nil {
		uc.observeError(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalDecisions.WithLabelValues("approved").Inc()
	}

	return result, nil
}

// RejectWithdraw fails a pending withdrawal and credits the amount back to the
// wallet through a separate COMPLETED refund entry.
func (uc *WithdrawalUseCase) RejectWithdraw(ctx context.Context, entryID, reason string) (*domain.LedgerEntry, error) {
	if err := domain.ValidateDescription(reason, domain.MaxReasonLength); err != nil {
		return nil, err
	}

	var (
		result *domain.LedgerEntry
		userID string
	)

	err := runWithRetry(ctx, uc.retrier, func() error {
		var err error
		result, err = uc.decide(ctx, entryID, func(
			workCtx context.Context, tx Transaction, wallet *domain.Wallet, entry *domain.LedgerEntry, now time.Time,
		) (string, domain.AuditAction, string, error) {
			refunded, err := wallet.BalanceAfter(domain.EntryKindDeposit, entry.Amount)
			if err != nil {
				return "", "", "", err
			}

			if err := entry.Reject(reason, now); err != nil {
				return "", "", "", err
			}

			if err := uc.entryRepo.UpdateStatus(workCtx, tx, entry.ID, entry.Status, entry.Description, now); err != nil {
				return "", "", "", fmt.Errorf("reject withdrawal: %w", err)
			}

			refund := &domain.LedgerEntry{
				ID:            uc.idGen.Generate(),
				WalletID:      wallet.ID,
				Kind:          domain.EntryKindDeposit,
				Status:        domain.EntryStatusCompleted,
				Amount:        entry.Amount,
				BalanceBefore: wallet.Balance,
				BalanceAfter:  refunded,
				Sequence:      wallet.Version + 1,
				Description:   domain.RefundDescription(entry.ID),
				ReferenceID:   entry.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}

			if err := uc.entryRepo.Create(workCtx, tx, refund); err != nil {
				return "", "", "", fmt.Errorf("create refund entry: %w", err)
			}

			if err := uc.walletRepo.UpdateBalance(workCtx, tx, wallet.ID, refund.BalanceAfter, refund.Sequence, now); err != nil {
				return "", "", "", fmt.Errorf("refund wallet balance: %w", err)
			}

			wallet.Balance = refund.BalanceAfter
			wallet.Version = refund.Sequence
			wallet.UpdatedAt = now
			userID = wallet.UserID

			return domain.EventTypeWithdrawRejected, domain.AuditActionWithdrawReject, reason, nil
		})
		return err
	})
	if err != nil {
		uc.observeError(err)
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, uc.logger, userID)

	if uc.metrics != nil {
		uc.metrics.WithdrawalDecisions.WithLabelValues("rejected").Inc()
	}

	return result, nil
}

type decisionFunc func(
	workCtx context.Context,
	tx Transaction,
	wallet *domain.Wallet,
	entry *domain.LedgerEntry,
	now time.Time,
) (eventType string, action domain.AuditAction, reason string, err error)

// decide locks the wallet, then the entry, re-checks the entry under the lock
// and applies fn. Every path that locks both takes the wallet first.
func (uc *WithdrawalUseCase) decide(ctx context.Context, entryID string, fn decisionFunc) (*domain.LedgerEntry, error) {
	current, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if err := current.RequirePendingWithdrawal(); err != nil {
		return nil, err
	}

	lockCtx, workCtx, cancel := lockScope(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(lockCtx)
	if err != nil {
		return nil, lockError(ctx, lockCtx, err)
	}
	defer func() { _ = tx.Rollback(workCtx) }()

	wallet, err := uc.walletRepo.GetByIDForUpdate(lockCtx, tx, current.WalletID)
	if err != nil {
		return nil, lockError(ctx, lockCtx, err)
	}

	entry, err := uc.entryRepo.GetByIDForUpdate(lockCtx, tx, entryID)
	if err != nil {
		return nil, lockError(ctx, lockCtx, err)
	}

	before := domain.EntryState(entry)
	now := uc.now()

	eventType, action, reason, err := fn(workCtx, tx, wallet, entry, now)
	if err != nil {
		return nil, err
	}

	payload := domain.NewBalanceChangedEvent(wallet, entry, reason).Payload()
	if err := emitEvent(workCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeEntry, entry.ID, eventType, payload, now); err != nil {
		return nil, fmt.Errorf("write outbox event: %w", err)
	}

	if err := writeAudit(workCtx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
		action:       action,
		resourceType: domain.AggregateTypeEntry,
		resourceID:   entry.ID,
		before:       before,
		after:        domain.EntryState(entry),
	}, now); err != nil {
		return nil, fmt.Errorf("write audit log: %w", err)
	}

	if err := tx.Commit(workCtx); err != nil {
		return nil, fmt.Errorf("commit withdrawal decision: %w", err)
	}

	uc.logger.InfoCtx(ctx, "withdrawal decided",
		"entry_id", entry.ID,
		"wallet_id", wallet.ID,
		"status", entry.Status,
		"amount", entry.Amount.String(),
		"balance", wallet.Balance.String(),
	)

	return entry, nil
}

func (uc *WithdrawalUseCase) observeError(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.LedgerErrors.WithLabelValues(errorType(err)).Inc()
	if errorType(err) == "lock_timeout" {
		uc.metrics.LockTimeouts.Inc()
	}
}
