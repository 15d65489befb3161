package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// TransactionUseCase is the ledger engine. It is the only code that moves a
// wallet balance: every mutation locks the wallet row, writes a ledger entry
// and updates the balance inside one database transaction.
type TransactionUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics

	retrier   Retrier
	cache     BalanceCache
	logger    *logging.Logger
	txTimeout time.Duration
	now       func() time.Time
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logging.Default(),
		txTimeout:  DefaultTransactionTimeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRetrier retries the whole transaction on deadlocks and serialization failures.
func (uc *TransactionUseCase) WithRetrier(r Retrier) *TransactionUseCase {
	uc.retrier = r
	return uc
}

// WithBalanceCache invalidates cached balances after every committed mutation.
func (uc *TransactionUseCase) WithBalanceCache(c BalanceCache) *TransactionUseCase {
	uc.cache = c
	return uc
}

func (uc *TransactionUseCase) WithLogger(l *logging.Logger) *TransactionUseCase {
	uc.logger = l
	return uc
}

// WithTransactionTimeout bounds lock wait plus work for one operation.
func (uc *TransactionUseCase) WithTransactionTimeout(d time.Duration) *TransactionUseCase {
	if d > 0 {
		uc.txTimeout = d
	}
	return uc
}

// DepositInput represents input for crediting a wallet.
type DepositInput struct {
	UserID      string
	Amount      domain.Money
	Description string
	ReferenceID string
}

// WithdrawInput represents input for a withdrawal request.
type WithdrawInput struct {
	UserID      string
	Amount      domain.Money
	Description string
}

// ExecuteInput is the generic form accepted by Execute.
type ExecuteInput struct {
	UserID      string
	Kind        domain.EntryKind
	Amount      domain.Money
	Description string
	ReferenceID string
}

// Deposit credits the wallet and returns a COMPLETED entry.
func (uc *TransactionUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.LedgerEntry, error) {
	return uc.Execute(ctx, ExecuteInput{
		UserID:      input.UserID,
		Kind:        domain.EntryKindDeposit,
		Amount:      input.Amount,
		Description: input.Description,
		ReferenceID: input.ReferenceID,
	})
}

// FindDeposit returns the COMPLETED deposit recorded under referenceID, or
// ErrEntryNotFound.
func (uc *TransactionUseCase) FindDeposit(ctx context.Context, referenceID string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetCompletedDepositByReference(ctx, referenceID)
}

// Withdraw debits the wallet immediately and returns a PENDING entry that
// waits for an approval decision.
func (uc *TransactionUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.LedgerEntry, error) {
	return uc.Execute(ctx, ExecuteInput{
		UserID:      input.UserID,
		Kind:        domain.EntryKindWithdraw,
		Amount:      input.Amount,
		Description: input.Description,
	})
}

// Execute applies one balance-affecting entry to the user's wallet.
func (uc *TransactionUseCase) Execute(ctx context.Context, input ExecuteInput) (*domain.LedgerEntry, error) {
	start := time.Now()

	// 0. Validate before touching any lock
	if err := validateExecuteInput(input); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		entry  *domain.LedgerEntry
		wallet *domain.Wallet
		failed *domain.LedgerEntry
	)

	err := runWithRetry(ctx, uc.retrier, func() error {
		var attemptErr error
		entry, wallet, failed, attemptErr = uc.execute(ctx, input)
		return attemptErr
	})

	uc.observe(input, entry, err, start)

	if err != nil {
		if failed != nil {
			uc.recordFailure(ctx, failed, err)
		}
		return nil, err
	}

	invalidateBalance(ctx, uc.cache, uc.logger, wallet.UserID)

	return entry, nil
}

// execute runs a single attempt. When a storage error aborts the attempt after
// the entry was built, the entry is returned as the third value so the caller
// can record the failure once retries are exhausted.
func (uc *TransactionUseCase) execute(
	ctx context.Context,
	input ExecuteInput,
) (*domain.LedgerEntry, *domain.Wallet, *domain.LedgerEntry, error) {
	lockCtx, workCtx, cancel := lockScope(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(lockCtx)
	if err != nil {
		return nil, nil, nil, lockError(ctx, lockCtx, err)
	}
	defer func() { _ = tx.Rollback(workCtx) }()

	// 1. Acquire the per-wallet lock
	wallet, err := uc.walletRepo.GetByUserIDForUpdate(lockCtx, tx, input.UserID)
	if err != nil {
		return nil, nil, nil, lockError(ctx, lockCtx, err)
	}

	if !wallet.IsActive {
		return nil, nil, nil, domain.ErrWalletInactive
	}

	// 2-4. Check funds and compute the new balance
	balanceAfter, err := wallet.BalanceAfter(input.Kind, input.Amount)
	if err != nil {
		return nil, nil, nil, err
	}

	now := uc.now()
	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		WalletID:      wallet.ID,
		Kind:          input.Kind,
		Status:        domain.EntryStatusPending,
		Amount:        input.Amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  balanceAfter,
		Sequence:      wallet.Version + 1,
		Description:   input.Description,
		ReferenceID:   input.ReferenceID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// 5. Persist the PENDING entry
	if err := uc.entryRepo.Create(workCtx, tx, entry); err != nil {
		return nil, nil, entry, fmt.Errorf("create ledger entry: %w", err)
	}

	// 6. Apply the balance mutation
	if err := uc.walletRepo.UpdateBalance(workCtx, tx, wallet.ID, balanceAfter, entry.Sequence, now); err != nil {
		return nil, nil, entry, fmt.Errorf("update wallet balance: %w", err)
	}

	// 7. Deposits complete immediately, withdrawals wait for approval
	eventType := domain.EventTypeWithdrawRequested
	if input.Kind == domain.EntryKindDeposit {
		if err := uc.entryRepo.UpdateStatus(workCtx, tx, entry.ID, domain.EntryStatusCompleted, entry.Description, now); err != nil {
			return nil, nil, entry, fmt.Errorf("complete ledger entry: %w", err)
		}
		entry.Status = domain.EntryStatusCompleted
		eventType = domain.EventTypeDepositCompleted
	}

	wallet.Balance = balanceAfter
	wallet.Version = entry.Sequence
	wallet.UpdatedAt = now

	payload := domain.NewBalanceChangedEvent(wallet, entry, "").Payload()
	if err := emitEvent(workCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeEntry, entry.ID, eventType, payload, now); err != nil {
		return nil, nil, entry, fmt.Errorf("write outbox event: %w", err)
	}

	// 8. Commit releases the lock
	if err := tx.Commit(workCtx); err != nil {
		return nil, nil, entry, fmt.Errorf("commit ledger transaction: %w", err)
	}

	return entry, wallet, nil, nil
}

// recordFailure appends a FAILED copy of an aborted entry in its own
// transaction. It never touches the balance and leaves the sequence unset.
func (uc *TransactionUseCase) recordFailure(ctx context.Context, entry *domain.LedgerEntry, cause error) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()

	record := *entry
	record.Status = domain.EntryStatusFailed
	record.Sequence = 0
	record.UpdatedAt = uc.now()

	err := func() error {
		tx, err := uc.txManager.Begin(failCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(failCtx) }()

		if err := uc.entryRepo.Create(failCtx, tx, &record); err != nil {
			return err
		}

		return tx.Commit(failCtx)
	}()
	if err != nil {
		uc.logger.ErrorCtx(ctx, "failed to record failed ledger entry",
			"entry_id", record.ID,
			"wallet_id", record.WalletID,
			"cause", cause,
			"error", err,
		)
		return
	}

	uc.logger.WarnCtx(ctx, "ledger entry failed",
		"entry_id", record.ID,
		"wallet_id", record.WalletID,
		"kind", record.Kind,
		"amount", record.Amount.String(),
		"cause", cause,
	)
}

func (uc *TransactionUseCase) observe(input ExecuteInput, entry *domain.LedgerEntry, err error, start time.Time) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.LedgerDuration.WithLabelValues(string(input.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		uc.metrics.LedgerErrors.WithLabelValues(errorType(err)).Inc()
		if errorType(err) == "lock_timeout" {
			uc.metrics.LockTimeouts.Inc()
		}
		return
	}

	uc.metrics.LedgerOperations.WithLabelValues(string(entry.Kind), string(entry.Status)).Inc()
	uc.metrics.LedgerAmount.WithLabelValues(string(entry.Kind)).Observe(entry.Amount.Decimal().InexactFloat64())
}

func validateExecuteInput(input ExecuteInput) error {
	if !input.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKind, input.Kind)
	}

	if !input.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}

	if err := domain.ValidateUserID(input.UserID); err != nil {
		return err
	}

	if err := domain.ValidateDescription(input.Description, domain.MaxDescriptionLength); err != nil {
		return err
	}

	return domain.ValidateReferenceID(input.ReferenceID)
}
