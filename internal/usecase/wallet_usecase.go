package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// WalletUseCase is the wallet registry: creation, lookups and the activity flag.
// It never changes a balance.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics

	cache    BalanceCache
	cacheTTL time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
		cacheTTL:   DefaultBalanceCacheTTL,
		logger:     logging.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithBalanceCache serves GetBalance from c for up to ttl.
func (uc *WalletUseCase) WithBalanceCache(c BalanceCache, ttl time.Duration) *WalletUseCase {
	uc.cache = c
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

func (uc *WalletUseCase) WithLogger(l *logging.Logger) *WalletUseCase {
	uc.logger = l
	return uc
}

// CreateWallet creates the wallet of a user with a zero balance.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := uc.now()
	wallet := domain.NewWallet(uc.idGen.Generate(), userID, now)

	if err := uc.walletRepo.Create(txCtx, tx, wallet); err != nil {
		return nil, err
	}

	event := domain.WalletEvent{WalletID: wallet.ID, UserID: wallet.UserID, IsActive: wallet.IsActive}
	if err := emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletCreated, event.Payload(), now); err != nil {
		return nil, fmt.Errorf("write outbox event: %w", err)
	}

	if err := writeAudit(txCtx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
		action:       domain.AuditActionWalletCreate,
		resourceType: domain.AggregateTypeWallet,
		resourceID:   wallet.ID,
		after:        domain.WalletState(wallet),
	}, now); err != nil {
		return nil, fmt.Errorf("write audit log: %w", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	uc.logger.InfoCtx(ctx, "wallet created", "wallet_id", wallet.ID, "user_id", wallet.UserID)

	return wallet, nil
}

// GetWallet returns the wallet of a user.
func (uc *WalletUseCase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByUserID(ctx, userID)
}

// GetWalletByID returns a wallet by its own id.
func (uc *WalletUseCase) GetWalletByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// GetBalance is a read-only lookup and may be served from the balance cache.
func (uc *WalletUseCase) GetBalance(ctx context.Context, userID string) (domain.Money, error) {
	if uc.cache != nil {
		balance, ok, err := uc.cache.Get(ctx, userID)
		switch {
		case err != nil:
			uc.logger.WarnCtx(ctx, "balance cache lookup failed", "user_id", userID, "error", err)
		case ok:
			uc.observeCache("hit")
			return balance, nil
		default:
			uc.observeCache("miss")
		}
	}

	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Money{}, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, userID, wallet.Balance, uc.cacheTTL); err != nil {
			uc.logger.WarnCtx(ctx, "balance cache store failed", "user_id", userID, "error", err)
		}
	}

	return wallet.Balance, nil
}

// ActivateWallet re-enables deposits and withdrawals.
func (uc *WalletUseCase) ActivateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.setActive(ctx, userID, true)
}

// DeactivateWallet blocks new deposits and withdrawals. Pending withdrawals
// can still be approved or rejected.
func (uc *WalletUseCase) DeactivateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.setActive(ctx, userID, false)
}

func (uc *WalletUseCase) setActive(ctx context.Context, userID string, active bool) (*domain.Wallet, error) {
	lockCtx, workCtx, cancel := lockScope(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(lockCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(workCtx) }()

	wallet, err := uc.walletRepo.GetByUserIDForUpdate(lockCtx, tx, userID)
	if err != nil {
		return nil, lockError(ctx, lockCtx, err)
	}

	if wallet.IsActive == active {
		return wallet, nil
	}

	before := domain.WalletState(wallet)
	now := uc.now()

	if err := uc.walletRepo.SetActive(workCtx, tx, wallet.ID, active, now); err != nil {
		return nil, err
	}
	wallet.IsActive = active
	wallet.UpdatedAt = now

	eventType, action, state := domain.EventTypeWalletDeactivated, domain.AuditActionWalletDeactivate, "inactive"
	if active {
		eventType, action, state = domain.EventTypeWalletActivated, domain.AuditActionWalletActivate, "active"
	}

	event := domain.WalletEvent{WalletID: wallet.ID, UserID: wallet.UserID, IsActive: wallet.IsActive}
	if err := emitEvent(workCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeWallet, wallet.ID, eventType, event.Payload(), now); err != nil {
		return nil, fmt.Errorf("write outbox event: %w", err)
	}

	if err := writeAudit(workCtx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
		action:       action,
		resourceType: domain.AggregateTypeWallet,
		resourceID:   wallet.ID,
		before:       before,
		after:        domain.WalletState(wallet),
	}, now); err != nil {
		return nil, fmt.Errorf("write audit log: %w", err)
	}

	if err := tx.Commit(workCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletStateChange.WithLabelValues(state).Inc()
	}

	return wallet, nil
}

func (uc *WalletUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.BalanceCacheLookups.WithLabelValues(result).Inc()
	}
}
