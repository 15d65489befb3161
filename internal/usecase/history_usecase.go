package usecase

import (
	"context"
	"fmt"

	"github.com/iho/gowallet/internal/domain"
)

// HistoryUseCase answers read-only queries over ledger entries.
type HistoryUseCase struct {
	walletRepo WalletRepository
	entryRepo  EntryRepository
}

func NewHistoryUseCase(walletRepo WalletRepository, entryRepo EntryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
	}
}

// HistoryQuery selects a page of entries. An empty Kind matches all kinds.
type HistoryQuery struct {
	UserID string
	Kind   domain.EntryKind
	Limit  int
	Offset int
	// IncludeWallets attaches the owning wallets to an admin listing.
	IncludeWallets bool
}

// HistoryPage is one page of entries plus the total number of matches.
type HistoryPage struct {
	Entries []*domain.LedgerEntry
	Total   int64
	Limit   int
	Offset  int
	Wallets map[string]*domain.Wallet
}

// GetHistory lists a user's entries, newest first.
func (uc *HistoryUseCase) GetHistory(ctx context.Context, query HistoryQuery) (*HistoryPage, error) {
	if err := validateKindFilter(query.Kind); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(query.Limit, query.Offset)

	entries, err := uc.entryRepo.ListByWallet(ctx, wallet.ID, query.Kind, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.entryRepo.CountByWallet(ctx, wallet.ID, query.Kind)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{Entries: entries, Total: total, Limit: limit, Offset: offset}
	if query.IncludeWallets {
		page.Wallets = map[string]*domain.Wallet{wallet.ID: wallet}
	}

	return page, nil
}

// ListAll lists entries across all wallets, newest first.
func (uc *HistoryUseCase) ListAll(ctx context.Context, query HistoryQuery) (*HistoryPage, error) {
	if err := validateKindFilter(query.Kind); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(query.Limit, query.Offset)

	entries, err := uc.entryRepo.ListAll(ctx, query.Kind, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.entryRepo.CountAll(ctx, query.Kind)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{Entries: entries, Total: total, Limit: limit, Offset: offset}
	if query.IncludeWallets {
		if page.Wallets, err = uc.walletsFor(ctx, entries); err != nil {
			return nil, err
		}
	}

	return page, nil
}

// ListPendingWithdrawals is the approval queue, oldest first.
func (uc *HistoryUseCase) ListPendingWithdrawals(ctx context.Context, limit, offset int, includeWallets bool) (*HistoryPage, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	entries, err := uc.entryRepo.ListPendingWithdrawals(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.entryRepo.CountPendingWithdrawals(ctx)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{Entries: entries, Total: total, Limit: limit, Offset: offset}
	if includeWallets {
		if page.Wallets, err = uc.walletsFor(ctx, entries); err != nil {
			return nil, err
		}
	}

	return page, nil
}

// GetEntry returns any entry by id.
func (uc *HistoryUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// GetEntryForUser returns the entry only if it belongs to the user's wallet.
func (uc *HistoryUseCase) GetEntryForUser(ctx context.Context, id, userID string) (*domain.LedgerEntry, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.WalletID != wallet.ID {
		return nil, domain.ErrEntryNotFound
	}

	return entry, nil
}

func (uc *HistoryUseCase) walletsFor(ctx context.Context, entries []*domain.LedgerEntry) (map[string]*domain.Wallet, error) {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.WalletID]; ok {
			continue
		}
		seen[e.WalletID] = struct{}{}
		ids = append(ids, e.WalletID)
	}

	wallets, err := uc.walletRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		byID[w.ID] = w
	}

	return byID, nil
}

func validateKindFilter(kind domain.EntryKind) error {
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKind, kind)
	}

	return nil
}
