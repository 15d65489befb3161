package domain

import (
	"time"
)

// Wallet holds the balance of a single user. It is created once per user
// and never deleted.
type Wallet struct {
	ID        string
	UserID    string
	Balance   Money
	Version   int64 // number of sequenced ledger entries applied
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWallet returns an active wallet with a zero balance.
func NewWallet(id, userID string, now time.Time) *Wallet {
	return &Wallet{
		ID:        id,
		UserID:    userID,
		Balance:   ZeroMoney,
		Version:   0,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateDebit checks that amount can be withdrawn from the current balance.
func (w *Wallet) ValidateDebit(amount Money) error {
	if amount.GreaterThan(w.Balance) {
		return &InsufficientBalanceError{Current: w.Balance, Requested: amount}
	}

	return nil
}

// BalanceAfter computes the balance that applying an entry of the given kind would leave.
func (w *Wallet) BalanceAfter(kind EntryKind, amount Money) (Money, error) {
	switch kind {
	case EntryKindDeposit:
		return w.Balance.CheckedAdd(amount)
	case EntryKindWithdraw:
		if err := w.ValidateDebit(amount); err != nil {
			return Money{}, err
		}
		return w.Balance.Sub(amount)
	default:
		return Money{}, ErrInvalidKind
	}
}
