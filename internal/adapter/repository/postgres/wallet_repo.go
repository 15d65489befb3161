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

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return newWalletRepository(pool)
}

func newWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{queries: generated.New(db)}
}

// Create inserts a wallet. A second wallet for the same user yields ErrWalletAlreadyExists.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateWallet(ctx, generated.CreateWalletParams{
		ID:        wallet.ID,
		UserID:    wallet.UserID,
		Balance:   moneyToNumeric(wallet.Balance),
		Version:   wallet.Version,
		IsActive:  wallet.IsActive,
		CreatedAt: timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(wallet.UpdatedAt),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return domain.ErrWalletAlreadyExists
	}

	return err
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}

	return rowToWallet(row)
}

// GetByUserID retrieves the wallet of a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrWalletNotFound)
	}

	return rowToWallet(row)
}

// GetByIDs retrieves the wallets that exist among ids.
func (r *WalletRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Wallet, error) {
	if len(ids) == 0 {
		return []*domain.Wallet{}, nil
	}

	rows, err := r.queries.GetWalletsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToWallets(rows)
}

// List lists wallets ordered by ID.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.queries.ListWallets(ctx, generated.ListWalletsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToWallets(rows)
}

// GetByUserIDForUpdate retrieves a user's wallet with a FOR UPDATE lock.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetWalletByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, lockErr(notFound(err, domain.ErrWalletNotFound))
	}

	return rowToWallet(row)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetWalletByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lockErr(notFound(err, domain.ErrWalletNotFound))
	}

	return rowToWallet(row)
}

// UpdateBalance stores the balance and version of a locked wallet.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, version int64, updatedAt time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	n, err := r.queries.WithTx(pgxTx).UpdateWalletBalance(ctx, generated.UpdateWalletBalanceParams{
		ID:        id,
		Balance:   moneyToNumeric(balance),
		Version:   version,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// SetActive changes the activity flag of a wallet.
func (r *WalletRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	n, err := r.queries.WithTx(pgxTx).SetWalletActive(ctx, generated.SetWalletActiveParams{
		ID:        id,
		IsActive:  active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

func rowToWallet(row generated.Wallet) (*domain.Wallet, error) {
	balance, err := numericToMoney(row.Balance)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", row.ID, err)
	}

	return &domain.Wallet{
		ID:        row.ID,
		UserID:    row.UserID,
		Balance:   balance,
		Version:   row.Version,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

func rowsToWallets(rows []generated.Wallet) ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		w, err := rowToWallet(row)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, nil
}
