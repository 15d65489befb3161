package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
)

// LoanRepository implements usecase.LoanRepository on the loans table.
type LoanRepository struct {
	queries *generated.Queries
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return newLoanRepository(pool)
}

func newLoanRepository(db generated.DBTX) *LoanRepository {
	return &LoanRepository{queries: generated.New(db)}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	return r.queries.CreateLoan(ctx, generated.CreateLoanParams{
		ID:        loan.ID,
		UserID:    loan.UserID,
		Amount:    moneyToNumeric(loan.Amount),
		Status:    string(loan.Status),
		EntryID:   loan.EntryID,
		CreatedAt: timeToPgTimestamptz(loan.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(loan.UpdatedAt),
	})
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	row, err := r.queries.GetLoanByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}

	amount, err := numericToMoney(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", row.ID, err)
	}

	return &domain.Loan{
		ID:        row.ID,
		UserID:    row.UserID,
		Amount:    amount,
		Status:    domain.LoanStatus(row.Status),
		EntryID:   row.EntryID,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

// TransitionStatus is a compare-and-set on the loan status. An empty entryID
// keeps the stored one.
func (r *LoanRepository) TransitionStatus(ctx context.Context, id string, from, to domain.LoanStatus, entryID string, updatedAt time.Time) error {
	n, err := r.queries.TransitionLoanStatus(ctx, generated.TransitionLoanStatusParams{
		ID:         id,
		FromStatus: string(from),
		ToStatus:   string(to),
		EntryID:    entryID,
		UpdatedAt:  timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}

	return domain.ErrLoanNotPending
}
