package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for admin and registry actions
type AuditLog struct {
	ID           string
	ActorID      string // Who performed the action
	ActorRole    string
	Action       AuditAction
	ResourceType string // wallet, ledger_entry, loan
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is free-form audit state
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWalletCreate     AuditAction = "wallet.create"
	AuditActionWalletActivate   AuditAction = "wallet.activate"
	AuditActionWalletDeactivate AuditAction = "wallet.deactivate"
	AuditActionWithdrawApprove  AuditAction = "withdrawal.approve"
	AuditActionWithdrawReject   AuditAction = "withdrawal.reject"
	AuditActionLoanApprove      AuditAction = "loan.approve"
	AuditActionReconcile        AuditAction = "ledger.reconcile"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// EntryState is the audit snapshot of a ledger entry.
func EntryState(e *LedgerEntry) JSON {
	if e == nil {
		return nil
	}

	return JSON{
		"id":             e.ID,
		"wallet_id":      e.WalletID,
		"kind":           string(e.Kind),
		"status":         string(e.Status),
		"amount":         e.Amount.String(),
		"balance_before": e.BalanceBefore.String(),
		"balance_after":  e.BalanceAfter.String(),
		"description":    e.Description,
	}
}

// WalletState is the audit snapshot of a wallet.
func WalletState(w *Wallet) JSON {
	if w == nil {
		return nil
	}

	return JSON{
		"id":        w.ID,
		"user_id":   w.UserID,
		"balance":   w.Balance.String(),
		"version":   w.Version,
		"is_active": w.IsActive,
	}
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	ActorID      string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
