package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// ReconciliationUseCase verifies ledger chains and settles entries that were
// left PENDING without a decision path.
type ReconciliationUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	entryRepo  EntryRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics

	logger *logging.Logger
	now    func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo EntryRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logging.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ReconciliationUseCase) WithLogger(l *logging.Logger) *ReconciliationUseCase {
	uc.logger = l
	return uc
}

// VerifyWallet walks the sequenced entries of a user's wallet and checks every link.
func (uc *ReconciliationUseCase) VerifyWallet(ctx context.Context, userID string) (*domain.ChainReport, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return uc.verify(ctx, wallet)
}

func (uc *ReconciliationUseCase) verify(ctx context.Context, wallet *domain.Wallet) (*domain.ChainReport, error) {
	entries, err := uc.entryRepo.ListSequenced(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	report := domain.VerifyChain(wallet, entries)
	if !report.Valid {
		uc.logger.ErrorCtx(ctx, "ledger chain verification failed",
			"wallet_id", wallet.ID,
			"violations", len(report.Violations),
		)
	}

	return &report, nil
}

// ReconciliationReport summarises chain verification over all wallets
type ReconciliationReport struct {
	TotalWallets  int
	ValidWallets  int
	Discrepancies []*domain.ChainReport
	CheckedAt     time.Time
}

// GenerateReconciliationReport verifies every wallet, page by page
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*domain.ChainReport, 0),
		CheckedAt:     uc.now(),
	}

	for offset := 0; ; offset += domain.MaxPageSize {
		wallets, err := uc.walletRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, wallet := range wallets {
			chain, err := uc.verify(ctx, wallet)
			if err != nil {
				return nil, fmt.Errorf("failed to verify wallet %s: %w", wallet.ID, err)
			}

			report.TotalWallets++
			if chain.Valid {
				report.ValidWallets++
			} else {
				report.Discrepancies = append(report.Discrepancies, chain)
			}
		}

		if len(wallets) < domain.MaxPageSize {
			break
		}
	}

	return report, nil
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Inspected int `json:"inspected"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// SweepPending settles DEPOSIT entries that stayed PENDING for longer than
// olderThan. An entry whose effect is recorded in the wallet chain becomes
// COMPLETED. Anything else becomes FAILED and never touches the balance.
// PENDING withdrawals are approval requests and are not swept.
func (uc *ReconciliationUseCase) SweepPending(ctx context.Context, olderThan time.Duration) (*SweepResult, error) {
	cutoff := uc.now().Add(-olderThan)

	stale, err := uc.entryRepo.ListStalePending(ctx, domain.EntryKindDeposit, cutoff, DefaultReconcileBatch)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, candidate := range stale {
		result.Inspected++

		outcome, err := uc.settle(ctx, candidate)
		if err != nil {
			uc.logger.ErrorCtx(ctx, "failed to settle pending entry", "entry_id", candidate.ID, "error", err)
			result.Skipped++
			continue
		}

		switch outcome {
		case domain.EntryStatusCompleted:
			result.Completed++
		case domain.EntryStatusFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	if result.Inspected > 0 {
		uc.logger.InfoCtx(ctx, "pending sweep finished",
			"inspected", result.Inspected,
			"completed", result.Completed,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	}

	return result, nil
}

// settle decides one entry under the wallet lock. It returns "" when the entry
// was already decided by someone else.
func (uc *ReconciliationUseCase) settle(ctx context.Context, candidate *domain.LedgerEntry) (domain.EntryStatus, error) {
	lockCtx, workCtx, cancel := lockScope(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(lockCtx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(workCtx) }()

	wallet, err := uc.walletRepo.GetByIDForUpdate(lockCtx, tx, candidate.WalletID)
	if err != nil {
		return "", lockError(ctx, lockCtx, err)
	}

	entry, err := uc.entryRepo.GetByIDForUpdate(lockCtx, tx, candidate.ID)
	if err != nil {
		return "", lockError(ctx, lockCtx, err)
	}

	if entry.Status != domain.EntryStatusPending {
		return "", nil
	}

	applied, err := uc.isApplied(workCtx, wallet, entry)
	if err != nil {
		return "", err
	}

	outcome := domain.EntryStatusFailed
	if applied {
		outcome = domain.EntryStatusCompleted
	}

	before := domain.EntryState(entry)
	now := uc.now()

	if applied {
		err = uc.entryRepo.UpdateStatus(workCtx, tx, entry.ID, outcome, entry.Description, now)
	} else {
		err = uc.entryRepo.MarkUnapplied(workCtx, tx, entry.ID, now)
		entry.Sequence = 0
	}
	if err != nil {
		return "", err
	}
	entry.Status = outcome
	entry.UpdatedAt = now

	if err := writeAudit(workCtx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
		action:       domain.AuditActionReconcile,
		resourceType: domain.AggregateTypeEntry,
		resourceID:   entry.ID,
		before:       before,
		after:        domain.EntryState(entry),
	}, now); err != nil {
		return "", err
	}

	if err := tx.Commit(workCtx); err != nil {
		return "", err
	}

	if uc.metrics != nil {
		uc.metrics.ReconciledEntries.WithLabelValues(string(outcome)).Inc()
	}

	return outcome, nil
}

// isApplied reports whether the entry sits in the wallet chain at its own
// sequence with consistent arithmetic.
func (uc *ReconciliationUseCase) isApplied(ctx context.Context, wallet *domain.Wallet, entry *domain.LedgerEntry) (bool, error) {
	if !entry.IsApplied() || entry.Sequence > wallet.Version {
		return false, nil
	}

	if err := entry.CheckArithmetic(); err != nil {
		return false, nil
	}

	chain, err := uc.entryRepo.ListSequenced(ctx, wallet.ID)
	if err != nil {
		return false, err
	}

	// Entries past the wallet version never reached the balance.
	if int64(len(chain)) > wallet.Version {
		chain = chain[:wallet.Version]
	}

	idx := entry.Sequence - 1
	if idx >= int64(len(chain)) || chain[idx].ID != entry.ID {
		return false, nil
	}

	if report := domain.VerifyChain(wallet, chain); !report.Valid {
		return false, nil
	}

	return true, nil
}
