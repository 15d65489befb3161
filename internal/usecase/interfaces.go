package usecase

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// WalletRepository defines data access for wallets.
//
// UpdateBalance is only called by the ledger use cases in this package while
// the wallet row is locked.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Wallet, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
	// GetByUserIDForUpdate and GetByIDForUpdate lock the wallet row until the
	// transaction ends. A bounded wait that expires yields domain.ErrLockTimeout.
	GetByUserIDForUpdate(ctx context.Context, tx Transaction, userID string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance domain.Money, version int64, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// UpdateStatus changes status and description of an entry that is still PENDING.
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EntryStatus, description string, updatedAt time.Time) error
	// MarkUnapplied fails a PENDING entry whose effect never reached the
	// balance and clears its sequence.
	MarkUnapplied(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	// GetCompletedDepositByReference returns ErrEntryNotFound when no completed
	// deposit carries referenceID.
	GetCompletedDepositByReference(ctx context.Context, referenceID string) (*domain.LedgerEntry, error)
	// ListByWallet returns entries newest first. An empty kind matches all kinds.
	ListByWallet(ctx context.Context, walletID string, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error)
	CountByWallet(ctx context.Context, walletID string, kind domain.EntryKind) (int64, error)
	ListAll(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error)
	CountAll(ctx context.Context, kind domain.EntryKind) (int64, error)
	// ListPendingWithdrawals returns the approval queue oldest first.
	ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
	CountPendingWithdrawals(ctx context.Context) (int64, error)
	// ListSequenced returns entries that affected the balance, by sequence ascending.
	ListSequenced(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error)
	ListStalePending(ctx context.Context, kind domain.EntryKind, createdBefore time.Time, limit int) ([]*domain.LedgerEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// LoanRepository is the narrow view of the loan collaborator used by the credit saga.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	// TransitionStatus moves a loan from one status to another and fails with
	// domain.ErrLoanNotPending when the loan is not in the expected status.
	TransitionStatus(ctx context.Context, id string, from, to domain.LoanStatus, entryID string, updatedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors such as deadlocks.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// BalanceCache caches read-only balance lookups. It is never consulted
// while a wallet is being mutated.
type BalanceCache interface {
	Get(ctx context.Context, userID string) (domain.Money, bool, error)
	Set(ctx context.Context, userID string, balance domain.Money, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete, so it can be retried.
	Release(ctx context.Context, key string) error
}
