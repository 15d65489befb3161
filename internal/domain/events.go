package domain

import "time"

// Event types
const (
	EventTypeWalletCreated      = "wallet.created"
	EventTypeWalletDeactivated  = "wallet.deactivated"
	EventTypeWalletActivated    = "wallet.activated"
	EventTypeDepositCompleted   = "ledger.deposit_completed"
	EventTypeWithdrawRequested  = "ledger.withdraw_requested"
	EventTypeWithdrawApproved   = "ledger.withdraw_approved"
	EventTypeWithdrawRejected   = "ledger.withdraw_rejected"
	EventTypeLoanConfirmed      = "loan.confirmed"
)

// Aggregate types
const (
	AggregateTypeWallet = "wallet"
	AggregateTypeEntry  = "ledger_entry"
	AggregateTypeLoan   = "loan"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// BalanceChangedEvent is the payload of every ledger event. Notification
// subscribers key off UserID.
type BalanceChangedEvent struct {
	EntryID       string `json:"entry_id"`
	WalletID      string `json:"wallet_id"`
	UserID        string `json:"user_id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Balance       string `json:"balance"`
	ReferenceID   string `json:"reference_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	EventAt       string `json:"event_at"`
}

// NewBalanceChangedEvent builds the event payload for entry on wallet after the mutation.
func NewBalanceChangedEvent(wallet *Wallet, entry *LedgerEntry, reason string) BalanceChangedEvent {
	return BalanceChangedEvent{
		EntryID:       entry.ID,
		WalletID:      wallet.ID,
		UserID:        wallet.UserID,
		Kind:          string(entry.Kind),
		Status:        string(entry.Status),
		Amount:        entry.Amount.String(),
		BalanceBefore: entry.BalanceBefore.String(),
		BalanceAfter:  entry.BalanceAfter.String(),
		Balance:       wallet.Balance.String(),
		ReferenceID:   entry.ReferenceID,
		Reason:        reason,
		EventAt:       entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Payload flattens the event into the outbox map.
func (e BalanceChangedEvent) Payload() map[string]any {
	p := map[string]any{
		"entry_id":       e.EntryID,
		"wallet_id":      e.WalletID,
		"user_id":        e.UserID,
		"kind":           e.Kind,
		"status":         e.Status,
		"amount":         e.Amount,
		"balance_before": e.BalanceBefore,
		"balance_after":  e.BalanceAfter,
		"balance":        e.Balance,
		"event_at":       e.EventAt,
	}
	if e.ReferenceID != "" {
		p["reference_id"] = e.ReferenceID
	}
	if e.Reason != "" {
		p["reason"] = e.Reason
	}

	return p
}

// WalletEvent payload
type WalletEvent struct {
	WalletID string `json:"wallet_id"`
	UserID   string `json:"user_id"`
	IsActive bool   `json:"is_active"`
}

func (e WalletEvent) Payload() map[string]any {
	return map[string]any{
		"wallet_id": e.WalletID,
		"user_id":   e.UserID,
		"is_active": e.IsActive,
	}
}
