package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	GetBalance(ctx context.Context, userID string) (domain.Money, error)
	ActivateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	DeactivateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Create creates a wallet for a user.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, r, "failed to create wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// Get retrieves the wallet of a user.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletUC.GetWallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Balance returns the current balance of a user's wallet.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	balance, err := h.walletUC.GetBalance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID, Balance: balance})
}

// Activate re-enables ledger operations on a wallet.
func (h *WalletHandler) Activate(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletUC.ActivateWallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "failed to activate wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Deactivate blocks deposits and withdrawals on a wallet.
func (h *WalletHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.walletUC.DeactivateWallet(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, "failed to deactivate wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}
