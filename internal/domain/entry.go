package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntryKind is the direction of a ledger entry.
type EntryKind string

const (
	EntryKindDeposit  EntryKind = "DEPOSIT"
	EntryKindWithdraw EntryKind = "WITHDRAW"
)

func (k EntryKind) Valid() bool {
	return k == EntryKindDeposit || k == EntryKindWithdraw
}

// ParseEntryKind accepts the kind in any case. An empty string yields "" and no error.
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case EntryKindDeposit:
		return EntryKindDeposit, nil
	case EntryKindWithdraw:
		return EntryKindWithdraw, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCompleted EntryStatus = "COMPLETED"
	EntryStatusFailed    EntryStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusFailed
}

// LedgerEntry is one balance-affecting event on a wallet.
//
// Sequence is the wallet version produced by applying the entry. Entries that
// were recorded for audit only and never touched the balance have Sequence 0.
type LedgerEntry struct {
	ID            string
	WalletID      string
	Kind          EntryKind
	Status        EntryStatus
	Amount        Money
	BalanceBefore Money
	BalanceAfter  Money
	Sequence      int64
	Description   string
	ReferenceID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsPendingWithdrawal reports whether the entry awaits an approval decision.
func (e *LedgerEntry) IsPendingWithdrawal() bool {
	return e.Kind == EntryKindWithdraw && e.Status == EntryStatusPending
}

// RequirePendingWithdrawal returns an InvalidStateError unless the entry is a pending withdrawal.
func (e *LedgerEntry) RequirePendingWithdrawal() error {
	if !e.IsPendingWithdrawal() {
		return &InvalidStateError{EntryID: e.ID, Kind: e.Kind, Status: e.Status}
	}

	return nil
}

// Approve transitions a pending withdrawal to COMPLETED.
func (e *LedgerEntry) Approve(now time.Time) error {
	if err := e.RequirePendingWithdrawal(); err != nil {
		return err
	}

	e.Status = EntryStatusCompleted
	e.UpdatedAt = now

	return nil
}

// Reject transitions a pending withdrawal to FAILED and annotates the description.
func (e *LedgerEntry) Reject(reason string, now time.Time) error {
	if err := e.RequirePendingWithdrawal(); err != nil {
		return err
	}

	e.Status = EntryStatusFailed
	e.Description = RejectedDescription(e.Description, reason)
	e.UpdatedAt = now

	return nil
}

// IsApplied reports whether the entry changed the wallet balance.
func (e *LedgerEntry) IsApplied() bool {
	return e.Sequence > 0
}

// CheckArithmetic verifies balanceAfter = balanceBefore ± amount.
func (e *LedgerEntry) CheckArithmetic() error {
	var expected Money
	switch e.Kind {
	case EntryKindDeposit:
		expected = e.BalanceBefore.Add(e.Amount)
	case EntryKindWithdraw:
		var err error
		expected, err = e.BalanceBefore.Sub(e.Amount)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
	default:
		return fmt.Errorf("entry %s: %w", e.ID, ErrInvalidKind)
	}

	if !expected.Equal(e.BalanceAfter) {
		return fmt.Errorf("entry %s: balance after %s, expected %s", e.ID, e.BalanceAfter, expected)
	}

	return nil
}

// RejectedDescription builds "<desc> - Rejected: <reason>", or "<desc> - Rejected" without a reason.
func RejectedDescription(description, reason string) string {
	if reason == "" {
		return description + " - Rejected"
	}

	return description + " - Rejected: " + reason
}

// RefundDescription is the description of the compensating entry for a rejected withdrawal.
func RefundDescription(withdrawalID string) string {
	return "Refund for rejected withdrawal " + withdrawalID
}

// ChainViolation describes one broken link in a wallet's ledger chain.
type ChainViolation struct {
	EntryID  string `json:"entry_id"`
	Sequence int64  `json:"sequence"`
	Reason   string `json:"reason"`
}

// ChainReport is the result of verifying a wallet's ledger chain.
type ChainReport struct {
	WalletID   string           `json:"wallet_id"`
	Balance    Money            `json:"balance"`
	Version    int64            `json:"version"`
	Entries    int              `json:"entries"`
	Valid      bool             `json:"valid"`
	Violations []ChainViolation `json:"violations,omitempty"`
}

// VerifyChain checks the sequenced entries of a wallet, ordered by sequence ascending,
// against the wallet's current balance and version.
func VerifyChain(wallet *Wallet, entries []*LedgerEntry) ChainReport {
	report := ChainReport{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
		Version:  wallet.Version,
		Entries:  len(entries),
	}

	violate := func(e *LedgerEntry, format string, args ...any) {
		v := ChainViolation{Reason: fmt.Sprintf(format, args...)}
		if e != nil {
			v.EntryID = e.ID
			v.Sequence = e.Sequence
		}
		report.Violations = append(report.Violations, v)
	}

	running := ZeroMoney
	for i, e := range entries {
		if want := int64(i + 1); e.Sequence != want {
			violate(e, "sequence %d, expected %d", e.Sequence, want)
		}

		if !e.BalanceBefore.Equal(running) {
			violate(e, "balance before %s, previous balance after %s", e.BalanceBefore, running)
		}

		if err := e.CheckArithmetic(); err != nil {
			violate(e, "%s", err.Error())
		}

		running = e.BalanceAfter
	}

	if int64(len(entries)) != wallet.Version {
		violate(nil, "wallet version %d, found %d sequenced entries", wallet.Version, len(entries))
	}

	if !running.Equal(wallet.Balance) {
		violate(nil, "wallet balance %s, chain ends at %s", wallet.Balance, running)
	}

	report.Valid = len(report.Violations) == 0

	return report
}
