package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error)
}

// TransactionHandler handles deposits and withdrawal requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Deposit credits a user's wallet.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "invalid deposit", err)
		return
	}

	entry, err := h.transactionUC.Deposit(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Withdraw debits a user's wallet and leaves the entry PENDING until an
// operator approves or rejects it.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "invalid withdrawal", err)
		return
	}

	entry, err := h.transactionUC.Withdraw(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to withdraw", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.EntryFromDomain(entry))
}
