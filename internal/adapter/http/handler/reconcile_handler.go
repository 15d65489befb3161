package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconcileHandler.
type ReconciliationService interface {
	VerifyWallet(ctx context.Context, userID string) (*domain.ChainReport, error)
	SweepPending(ctx context.Context, olderThan time.Duration) (*usecase.SweepResult, error)
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconcileHandler exposes chain verification and the pending sweep.
type ReconcileHandler struct {
	reconcileUC ReconciliationService
	pendingAge  time.Duration
}

// NewReconcileHandler creates a new ReconcileHandler. pendingAge is the
// default age past which a PENDING deposit is swept.
func NewReconcileHandler(reconcileUC ReconciliationService, pendingAge time.Duration) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileUC: reconcileUC,
		pendingAge:  pendingAge,
	}
}

// Verify checks the ledger chain of a user's wallet.
func (h *ReconcileHandler) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.VerifyWallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "failed to verify wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// SweepPending settles stale PENDING deposits. The older_than query
// parameter overrides the default age, e.g. ?older_than=10m.
func (h *ReconcileHandler) SweepPending(w http.ResponseWriter, r *http.Request) {
	olderThan := h.pendingAge
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid older_than", raw)
			return
		}
		olderThan = d
	}

	result, err := h.reconcileUC.SweepPending(r.Context(), olderThan)
	if err != nil {
		writeDomainError(w, r, "failed to sweep pending entries", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Report verifies the chain of every wallet.
func (h *ReconcileHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to generate reconciliation report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
