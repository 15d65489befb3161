package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WithdrawalService defines the approval decisions needed by WithdrawalHandler.
type WithdrawalService interface {
	ApproveWithdraw(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	RejectWithdraw(ctx context.Context, entryID, reason string) (*domain.LedgerEntry, error)
}

// PendingWithdrawalLister lists the approval queue.
type PendingWithdrawalLister interface {
	ListPendingWithdrawals(ctx context.Context, limit, offset int, includeWallets bool) (*usecase.HistoryPage, error)
}

// WithdrawalHandler handles the withdrawal approval workflow.
type WithdrawalHandler struct {
	withdrawalUC WithdrawalService
	queue        PendingWithdrawalLister
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalUC WithdrawalService, queue PendingWithdrawalLister) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalUC: withdrawalUC,
		queue:        queue,
	}
}

// Pending lists withdrawals awaiting a decision, oldest first.
func (h *WithdrawalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	page, err := h.queue.ListPendingWithdrawals(
		r.Context(),
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
		isAdmin(r),
	)
	if err != nil {
		writeDomainError(w, r, "failed to list pending withdrawals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromUseCase(page))
}

// Approve completes a pending withdrawal.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	entry, err := h.withdrawalUC.ApproveWithdraw(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to approve withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Reject fails a pending withdrawal and refunds the wallet.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req dto.RejectWithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.withdrawalUC.RejectWithdraw(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, r, "failed to reject withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
