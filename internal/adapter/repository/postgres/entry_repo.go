package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create inserts a ledger entry within a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:            entry.ID,
		WalletID:      entry.WalletID,
		Kind:          string(entry.Kind),
		Status:        string(entry.Status),
		Amount:        moneyToNumeric(entry.Amount),
		BalanceBefore: moneyToNumeric(entry.BalanceBefore),
		BalanceAfter:  moneyToNumeric(entry.BalanceAfter),
		Sequence:      entry.Sequence,
		Description:   entry.Description,
		ReferenceID:   entry.ReferenceID,
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return fmt.Errorf("ledger entry %s (sequence %d) already exists: %w", entry.ID, entry.Sequence, err)
	}

	return err
}

// UpdateStatus decides a PENDING entry.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, description string, updatedAt time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	q := r.queries.WithTx(pgxTx)
	n, err := q.UpdateLedgerEntryStatus(ctx, generated.UpdateLedgerEntryStatusParams{
		ID:          id,
		Status:      string(status),
		Description: description,
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return notPending(ctx, q, id)
	}

	return nil
}

// MarkUnapplied fails a PENDING entry and clears its sequence.
func (r *EntryRepository) MarkUnapplied(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	q := r.queries.WithTx(pgxTx)
	n, err := q.MarkLedgerEntryUnapplied(ctx, generated.MarkLedgerEntryUnappliedParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return notPending(ctx, q, id)
	}

	return nil
}

// notPending explains why a conditional update touched no row.
func notPending(ctx context.Context, q *generated.Queries, id string) error {
	row, err := q.GetLedgerEntryByID(ctx, id)
	if err != nil {
		return notFound(err, domain.ErrEntryNotFound)
	}

	return &domain.InvalidStateError{
		EntryID: row.ID,
		Kind:    domain.EntryKind(row.Kind),
		Status:  domain.EntryStatus(row.Status),
	}
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLedgerEntryByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}

	return rowToEntry(row)
}

// GetCompletedDepositByReference returns the oldest COMPLETED deposit that
// carries referenceID.
func (r *EntryRepository) GetCompletedDepositByReference(ctx context.Context, referenceID string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetCompletedDepositByReference(ctx, referenceID)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}

	return rowToEntry(row)
}

// GetByIDForUpdate retrieves an entry with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetLedgerEntryByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lockErr(notFound(err, domain.ErrEntryNotFound))
	}

	return rowToEntry(row)
}

// ListByWallet returns a wallet's entries newest first.
func (r *EntryRepository) ListByWallet(ctx context.Context, walletID string, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByWallet(ctx, generated.ListLedgerEntriesByWalletParams{
		WalletID: walletID,
		Kind:     string(kind),
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

// CountByWallet counts a wallet's entries.
func (r *EntryRepository) CountByWallet(ctx context.Context, walletID string, kind domain.EntryKind) (int64, error) {
	return r.queries.CountLedgerEntriesByWallet(ctx, generated.CountLedgerEntriesByWalletParams{
		WalletID: walletID,
		Kind:     string(kind),
	})
}

// ListAll returns entries of every wallet newest first.
func (r *EntryRepository) ListAll(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntries(ctx, generated.ListLedgerEntriesParams{
		Kind:   string(kind),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

func (r *EntryRepository) CountAll(ctx context.Context, kind domain.EntryKind) (int64, error) {
	return r.queries.CountLedgerEntries(ctx, string(kind))
}

// ListPendingWithdrawals returns the approval queue oldest first.
func (r *EntryRepository) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListPendingWithdrawals(ctx, generated.ListPendingWithdrawalsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

func (r *EntryRepository) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	return r.queries.CountPendingWithdrawals(ctx)
}

// ListSequenced returns the entries that moved the balance, by sequence.
func (r *EntryRepository) ListSequenced(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListSequencedLedgerEntries(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

// ListStalePending returns PENDING entries of a kind created before a cutoff, oldest first.
func (r *EntryRepository) ListStalePending(ctx context.Context, kind domain.EntryKind, createdBefore time.Time, limit int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListStalePendingLedgerEntries(ctx, generated.ListStalePendingLedgerEntriesParams{
		Kind:      string(kind),
		CreatedAt: timeToPgTimestamptz(createdBefore),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows)
}

func rowToEntry(row generated.LedgerEntry) (*domain.LedgerEntry, error) {
	amount, err := numericToMoney(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("entry %s amount: %w", row.ID, err)
	}
	before, err := numericToMoney(row.BalanceBefore)
	if err != nil {
		return nil, fmt.Errorf("entry %s balance_before: %w", row.ID, err)
	}
	after, err := numericToMoney(row.BalanceAfter)
	if err != nil {
		return nil, fmt.Errorf("entry %s balance_after: %w", row.ID, err)
	}

	return &domain.LedgerEntry{
		ID:            row.ID,
		WalletID:      row.WalletID,
		Kind:          domain.EntryKind(row.Kind),
		Status:        domain.EntryStatus(row.Status),
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Sequence:      row.Sequence,
		Description:   row.Description,
		ReferenceID:   row.ReferenceID,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}, nil
}

func rowsToEntries(rows []generated.LedgerEntry) ([]*domain.LedgerEntry, error) {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}
