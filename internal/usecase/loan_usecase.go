package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// Depositor is the slice of the ledger engine the loan saga needs.
type Depositor interface {
	Deposit(ctx context.Context, input DepositInput) (*domain.LedgerEntry, error)
	// FindDeposit returns domain.ErrEntryNotFound when no completed deposit
	// carries referenceID.
	FindDeposit(ctx context.Context, referenceID string) (*domain.LedgerEntry, error)
}

// LoanUseCase credits a wallet when a loan is approved. The loan is first
// moved to APPROVED and committed, then the wallet is credited, then the loan
// is CONFIRMED. If the credit fails and no credit for the loan is on the
// ledger, the loan is put back to PENDING.
type LoanUseCase struct {
	loanRepo LoanRepository
	ledger   Depositor
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewLoanUseCase(loanRepo LoanRepository, ledger Depositor, metrics *metrics.Metrics) *LoanUseCase {
	return &LoanUseCase{
		loanRepo: loanRepo,
		ledger:   ledger,
		metrics:  metrics,
		logger:   logging.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *LoanUseCase) WithLogger(l *logging.Logger) *LoanUseCase {
	uc.logger = l
	return uc
}

// ApproveLoanResult is the confirmed loan together with its credit entry.
type ApproveLoanResult struct {
	Loan  *domain.Loan
	Entry *domain.LedgerEntry
}

// ApproveLoan runs the credit saga for a PENDING loan.
func (uc *LoanUseCase) ApproveLoan(ctx context.Context, loanID string) (*ApproveLoanResult, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != domain.LoanStatusPending {
		return nil, fmt.Errorf("%w: loan %s is %s", domain.ErrLoanNotPending, loan.ID, loan.Status)
	}

	// Step 1: tentative approval
	if err := uc.loanRepo.TransitionStatus(ctx, loan.ID, domain.LoanStatusPending, domain.LoanStatusApproved, "", uc.now()); err != nil {
		return nil, err
	}

	// Step 2: credit the wallet
	entry, err := uc.ledger.Deposit(ctx, DepositInput{
		UserID:      loan.UserID,
		Amount:      loan.Amount,
		Description: domain.LoanDisbursementDescription,
		ReferenceID: loan.ID,
	})
	if err != nil {
		landed, lookupErr := uc.ledger.FindDeposit(context.WithoutCancel(ctx), loan.ID)
		switch {
		case lookupErr == nil:
			// The credit committed even though the call failed.
			uc.logger.WarnCtx(ctx, "loan credit landed despite error",
				"loan_id", loan.ID,
				"entry_id", landed.ID,
				"error", err,
			)
			entry = landed
		case errors.Is(lookupErr, domain.ErrEntryNotFound):
			uc.compensate(ctx, loan, err)
			return nil, err
		default:
			// Unknown outcome. Staying APPROVED blocks a second credit.
			uc.logger.ErrorCtx(ctx, "loan credit outcome unknown",
				"loan_id", loan.ID,
				"cause", err,
				"error", lookupErr,
			)
			uc.observe("unknown")
			return nil, err
		}
	}

	// Step 3: confirm
	if err := uc.loanRepo.TransitionStatus(context.WithoutCancel(ctx), loan.ID, domain.LoanStatusApproved, domain.LoanStatusConfirmed, entry.ID, uc.now()); err != nil {
		// The credit is committed. The loan stays APPROVED, which blocks a
		// second approval, and the entry carries the loan id as reference.
		uc.logger.ErrorCtx(ctx, "loan credited but not confirmed",
			"loan_id", loan.ID,
			"entry_id", entry.ID,
			"error", err,
		)
		uc.observe("unconfirmed")
		return nil, fmt.Errorf("confirm loan %s: %w", loan.ID, err)
	}

	loan.Status = domain.LoanStatusConfirmed
	loan.EntryID = entry.ID
	uc.observe("confirmed")

	uc.logger.InfoCtx(ctx, "loan credited",
		"loan_id", loan.ID,
		"user_id", loan.UserID,
		"entry_id", entry.ID,
		"amount", loan.Amount.String(),
	)

	return &ApproveLoanResult{Loan: loan, Entry: entry}, nil
}

func (uc *LoanUseCase) compensate(ctx context.Context, loan *domain.Loan, cause error) {
	err := uc.loanRepo.TransitionStatus(context.WithoutCancel(ctx), loan.ID, domain.LoanStatusApproved, domain.LoanStatusPending, "", uc.now())
	if err != nil {
		uc.logger.ErrorCtx(ctx, "failed to revert loan approval",
			"loan_id", loan.ID,
			"cause", cause,
			"error", err,
		)
		uc.observe("compensation_failed")
		return
	}

	uc.logger.WarnCtx(ctx, "loan approval reverted", "loan_id", loan.ID, "cause", cause)
	uc.observe("compensated")
}

func (uc *LoanUseCase) observe(outcome string) {
	if uc.metrics != nil {
		uc.metrics.LoanCredits.WithLabelValues(outcome).Inc()
	}
}
