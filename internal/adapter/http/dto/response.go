package dto

import (
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Balance   domain.Money `json:"balance"`
	Version   int64        `json:"version"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		Version:   w.Version,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// BalanceResponse represents the current balance of a user's wallet.
type BalanceResponse struct {
	UserID  string       `json:"user_id"`
	Balance domain.Money `json:"balance"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string             `json:"id"`
	WalletID      string             `json:"wallet_id"`
	UserID        string             `json:"user_id,omitempty"`
	Kind          domain.EntryKind   `json:"kind"`
	Status        domain.EntryStatus `json:"status"`
	Amount        domain.Money       `json:"amount"`
	BalanceBefore domain.Money       `json:"balance_before"`
	BalanceAfter  domain.Money       `json:"balance_after"`
	Sequence      int64              `json:"sequence"`
	Description   string             `json:"description,omitempty"`
	ReferenceID   string             `json:"reference_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		WalletID:      e.WalletID,
		Kind:          e.Kind,
		Status:        e.Status,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Sequence:      e.Sequence,
		Description:   e.Description,
		ReferenceID:   e.ReferenceID,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryPageResponse represents one page of ledger history.
type EntryPageResponse struct {
	Entries []*EntryResponse           `json:"entries"`
	Total   int64                      `json:"total"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
	Wallets map[string]*WalletResponse `json:"wallets,omitempty"`
}

// EntryPageFromUseCase converts a history page to response. When the page
// carries wallets, every entry is annotated with its owner.
func EntryPageFromUseCase(p *usecase.HistoryPage) *EntryPageResponse {
	resp := &EntryPageResponse{
		Entries: EntriesFromDomain(p.Entries),
		Total:   p.Total,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}

	if len(p.Wallets) > 0 {
		resp.Wallets = make(map[string]*WalletResponse, len(p.Wallets))
		for id, w := range p.Wallets {
			resp.Wallets[id] = WalletFromDomain(w)
		}
		for _, e := range resp.Entries {
			if w, ok := p.Wallets[e.WalletID]; ok {
				e.UserID = w.UserID
			}
		}
	}

	return resp
}

// LoanApprovalResponse represents the outcome of a loan credit.
type LoanApprovalResponse struct {
	LoanID string            `json:"loan_id"`
	UserID string            `json:"user_id"`
	Status domain.LoanStatus `json:"status"`
	Amount domain.Money      `json:"amount"`
	Entry  *EntryResponse    `json:"entry"`
}

// LoanApprovalFromUseCase converts an approval result to response.
func LoanApprovalFromUseCase(r *usecase.ApproveLoanResult) *LoanApprovalResponse {
	resp := &LoanApprovalResponse{
		LoanID: r.Loan.ID,
		UserID: r.Loan.UserID,
		Status: r.Loan.Status,
		Amount: r.Loan.Amount,
	}
	if r.Entry != nil {
		resp.Entry = EntryFromDomain(r.Entry)
	}
	return resp
}

// ReconciliationReportResponse summarises chain verification across wallets.
type ReconciliationReportResponse struct {
	TotalWallets  int                   `json:"total_wallets"`
	ValidWallets  int                   `json:"valid_wallets"`
	Discrepancies []*domain.ChainReport `json:"discrepancies"`
	CheckedAt     time.Time             `json:"checked_at"`
}

func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	return &ReconciliationReportResponse{
		TotalWallets:  r.TotalWallets,
		ValidWallets:  r.ValidWallets,
		Discrepancies: r.Discrepancies,
		CheckedAt:     r.CheckedAt,
	}
}

// AuditLogResponse represents an audit record in API responses.
type AuditLogResponse struct {
	ID           string             `json:"id"`
	ActorID      string             `json:"actor_id"`
	ActorRole    string             `json:"actor_role"`
	Action       domain.AuditAction `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RequestID    string             `json:"request_id,omitempty"`
	BeforeState  domain.JSON        `json:"before_state,omitempty"`
	AfterState   domain.JSON        `json:"after_state,omitempty"`
	Status       domain.AuditStatus `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// AuditLogsFromDomain converts audit records to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	resp := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = &AuditLogResponse{
			ID:           l.ID,
			ActorID:      l.ActorID,
			ActorRole:    l.ActorRole,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
