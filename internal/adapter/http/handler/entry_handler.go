package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// HistoryService defines the behavior needed by EntryHandler.
type HistoryService interface {
	GetHistory(ctx context.Context, query usecase.HistoryQuery) (*usecase.HistoryPage, error)
	ListAll(ctx context.Context, query usecase.HistoryQuery) (*usecase.HistoryPage, error)
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetEntryForUser(ctx context.Context, id, userID string) (*domain.LedgerEntry, error)
}

// EntryHandler handles ledger history requests.
type EntryHandler struct {
	historyUC HistoryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(historyUC HistoryService) *EntryHandler {
	return &EntryHandler{historyUC: historyUC}
}

// ListByWallet lists a user's entries, newest first.
func (h *EntryHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntryKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeDomainError(w, r, "invalid kind filter", err)
		return
	}

	page, err := h.historyUC.GetHistory(r.Context(), usecase.HistoryQuery{
		UserID: chi.URLParam(r, "userID"),
		Kind:   kind,
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromUseCase(page))
}

// List lists entries across all wallets, newest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseEntryKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeDomainError(w, r, "invalid kind filter", err)
		return
	}

	page, err := h.historyUC.ListAll(r.Context(), usecase.HistoryQuery{
		Kind:           kind,
		Limit:          parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:         parseIntQuery(r, "offset", 0),
		IncludeWallets: isAdmin(r),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromUseCase(page))
}

// Get retrieves an entry by ID. A plain user only sees entries of their own wallet.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		entry *domain.LedgerEntry
		err   error
	)
	if actor, ok := actorFrom(r); ok && !actor.IsAdmin() {
		entry, err = h.historyUC.GetEntryForUser(r.Context(), id, actor.ID)
	} else {
		entry, err = h.historyUC.GetEntry(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, r, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
