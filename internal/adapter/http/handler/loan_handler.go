package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	ApproveLoan(ctx context.Context, loanID string) (*usecase.ApproveLoanResult, error)
}

// LoanHandler handles loan credit requests.
type LoanHandler struct {
	loanUC LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService) *LoanHandler {
	return &LoanHandler{loanUC: loanUC}
}

// Approve credits a pending loan to the borrower's wallet.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.loanUC.ApproveLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to approve loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanApprovalFromUseCase(result))
}
