package domain

import (
	"errors"
	"fmt"
)

var (
	// Money errors
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnderflow     = errors.New("amount underflow")
	ErrOverflow      = errors.New("amount overflow")

	// Wallet errors
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletAlreadyExists = errors.New("wallet already exists")
	ErrWalletInactive      = errors.New("wallet is inactive")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Ledger errors
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrInvalidState  = errors.New("invalid entry state")
	ErrInvalidKind   = errors.New("invalid entry kind")

	// Concurrency errors
	ErrLockTimeout = errors.New("timed out waiting for wallet lock")

	// Loan errors
	ErrLoanNotFound   = errors.New("loan not found")
	ErrLoanNotPending = errors.New("loan is not pending")
)

// InsufficientBalanceError carries the balance seen under the lock and the
// amount that was requested.
type InsufficientBalanceError struct {
	Current   Money
	Requested Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current %s, requested %s", e.Current, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// InvalidStateError is returned when approve or reject targets an entry that
// is not a pending withdrawal.
type InvalidStateError struct {
	EntryID string
	Kind    EntryKind
	Status  EntryStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("entry %s is %s %s, expected PENDING WITHDRAW", e.EntryID, e.Status, e.Kind)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
