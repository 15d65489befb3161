package domain

import "time"

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED" // tentative, credit not yet confirmed
	LoanStatusConfirmed LoanStatus = "CONFIRMED"
	LoanStatusRejected  LoanStatus = "REJECTED"
)

// LoanDisbursementDescription is the ledger description of a loan credit.
const LoanDisbursementDescription = "Loan disbursement"

// Loan is the slice of the loan lifecycle the ledger cares about:
// who receives the credit and how much.
type Loan struct {
	ID        string
	UserID    string
	Amount    Money
	Status    LoanStatus
	EntryID   string // ledger entry that credited the wallet, once confirmed
	CreatedAt time.Time
	UpdatedAt time.Time
}
