package usecase_test

import (
	"context"
	"testing"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

// ledgerFixture wires every use case against one set of in-memory repositories.
type ledgerFixture struct {
	txManager *mocks.MockTransactionManager
	wallets   *mocks.MockWalletRepository
	entries   *mocks.MockEntryRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	cache     *mocks.MockBalanceCache
	idGen     *mocks.MockIDGenerator

	registry    *usecase.WalletUseCase
	engine      *usecase.TransactionUseCase
	withdrawals *usecase.WithdrawalUseCase
	history     *usecase.HistoryUseCase
	reconciler  *usecase.ReconciliationUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		txManager: mocks.NewMockTransactionManager(),
		wallets:   mocks.NewMockWalletRepository(),
		entries:   mocks.NewMockEntryRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		cache:     mocks.NewMockBalanceCache(),
		idGen:     mocks.NewMockIDGenerator(),
	}
	log := logging.Discard()

	f.registry = usecase.NewWalletUseCase(f.txManager, f.wallets, f.outbox, f.audit, f.idGen, nil).
		WithBalanceCache(f.cache, 0).
		WithLogger(log)
	f.engine = usecase.NewTransactionUseCase(f.txManager, f.wallets, f.entries, f.outbox, f.idGen, nil).
		WithBalanceCache(f.cache).
		WithLogger(log)
	f.withdrawals = usecase.NewWithdrawalUseCase(f.txManager, f.wallets, f.entries, f.outbox, f.audit, f.idGen, nil).
		WithBalanceCache(f.cache).
		WithLogger(log)
	f.history = usecase.NewHistoryUseCase(f.wallets, f.entries)
	f.reconciler = usecase.NewReconciliationUseCase(f.txManager, f.wallets, f.entries, f.audit, f.idGen, nil).
		WithLogger(log)

	return f
}

func (f *ledgerFixture) createWallet(t *testing.T, userID string) *domain.Wallet {
	t.Helper()

	w, err := f.registry.CreateWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("create wallet %s: %v", userID, err)
	}
	return w
}

func (f *ledgerFixture) deposit(t *testing.T, userID, amount string) *domain.LedgerEntry {
	t.Helper()

	e, err := f.engine.Deposit(context.Background(), usecase.DepositInput{
		UserID: userID,
		Amount: domain.RequireMoney(amount),
	})
	if err != nil {
		t.Fatalf("deposit %s to %s: %v", amount, userID, err)
	}
	return e
}

func (f *ledgerFixture) withdraw(t *testing.T, userID, amount, description string) *domain.LedgerEntry {
	t.Helper()

	e, err := f.engine.Withdraw(context.Background(), usecase.WithdrawInput{
		UserID:      userID,
		Amount:      domain.RequireMoney(amount),
		Description: description,
	})
	if err != nil {
		t.Fatalf("withdraw %s from %s: %v", amount, userID, err)
	}
	return e
}

func (f *ledgerFixture) wallet(t *testing.T, userID string) *domain.Wallet {
	t.Helper()

	w, err := f.wallets.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet %s: %v", userID, err)
	}
	return w
}

func (f *ledgerFixture) chain(t *testing.T, userID string) *domain.ChainReport {
	t.Helper()

	report, err := f.reconciler.VerifyWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("verify wallet %s: %v", userID, err)
	}
	return report
}
