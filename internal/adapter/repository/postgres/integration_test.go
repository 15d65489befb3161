package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/adapter/repository/postgres"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/testutil"
	"github.com/iho/gowallet/internal/usecase"
)

type stack struct {
	wallets     *usecase.WalletUseCase
	engine      *usecase.TransactionUseCase
	withdrawals *usecase.WithdrawalUseCase
	reconciler  *usecase.ReconciliationUseCase
	history     *usecase.HistoryUseCase
}

func newStack(t *testing.T, lockTimeout time.Duration) (*stack, *testutil.TestDB) {
	db := testutil.NewTestDB(t)

	txManager := postgres.NewTxManager(db.Pool, lockTimeout)
	walletRepo := postgres.NewWalletRepository(db.Pool)
	entryRepo := postgres.NewEntryRepository(db.Pool)
	outboxRepo := postgres.NewOutboxRepository(db.Pool)
	auditRepo := postgres.NewAuditRepository(db.Pool)
	idGen := postgres.NewULIDGenerator()
	log := logging.Discard()

	return &stack{
		wallets: usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo, auditRepo, idGen, nil).WithLogger(log),
		engine: usecase.NewTransactionUseCase(txManager, walletRepo, entryRepo, outboxRepo, idGen, nil).
			WithRetrier(postgres.NewRetrier().WithLogger(log)).
			WithLogger(log),
		withdrawals: usecase.NewWithdrawalUseCase(txManager, walletRepo, entryRepo, outboxRepo, auditRepo, idGen, nil).WithLogger(log),
		reconciler:  usecase.NewReconciliationUseCase(txManager, walletRepo, entryRepo, auditRepo, idGen, nil).WithLogger(log),
		history:     usecase.NewHistoryUseCase(walletRepo, entryRepo),
	}, db
}

func TestIntegration_ConcurrentDeposits(t *testing.T) {
	s, _ := newStack(t, 2*time.Second)
	ctx := context.Background()

	_, err := s.wallets.CreateWallet(ctx, "alice")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	var failures atomic.Int32
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			if _, err := s.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.01")}); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failures.Load())

	balance, err := s.wallets.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "50.50", balance.String())

	report, err := s.reconciler.VerifyWallet(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, report.Valid, "violations: %v", report.Violations)
	assert.Equal(t, n, report.Entries)
}

func TestIntegration_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	s, _ := newStack(t, 2*time.Second)
	ctx := context.Background()

	_, err := s.wallets.CreateWallet(ctx, "alice")
	require.NoError(t, err)
	_, err = s.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("10.00")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ok, insufficient atomic.Int32
	wg.Add(20)
	for range 20 {
		go func() {
			defer wg.Done()
			_, err := s.engine.Withdraw(ctx, usecase.WithdrawInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(10), insufficient.Load())

	balance, err := s.wallets.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestIntegration_RejectRefundsAndKeepsChain(t *testing.T) {
	s, _ := newStack(t, 2*time.Second)
	ctx := context.Background()

	_, err := s.wallets.CreateWallet(ctx, "alice")
	require.NoError(t, err)
	_, err = s.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("40.00")})
	require.NoError(t, err)
	w, err := s.engine.Withdraw(ctx, usecase.WithdrawInput{UserID: "alice", Amount: domain.RequireMoney("15.00"), Description: "rent"})
	require.NoError(t, err)

	pending, err := s.history.ListPendingWithdrawals(ctx, 0, 0, false)
	require.NoError(t, err)
	require.Len(t, pending.Entries, 1)

	_, err = s.withdrawals.RejectWithdraw(ctx, w.ID, "suspicious")
	require.NoError(t, err)

	_, err = s.withdrawals.ApproveWithdraw(ctx, w.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	balance, err := s.wallets.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.String())

	report, err := s.reconciler.VerifyWallet(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, report.Valid, "violations: %v", report.Violations)
}

func TestIntegration_LockTimeout(t *testing.T) {
	s, db := newStack(t, 200*time.Millisecond)
	ctx := context.Background()

	wallet, err := s.wallets.CreateWallet(ctx, "alice")
	require.NoError(t, err)

	holder, err := db.Pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, "SELECT id FROM wallets WHERE id = $1 FOR UPDATE", wallet.ID)
	require.NoError(t, err)

	_, err = s.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	require.NoError(t, holder.Rollback(ctx))

	_, err = s.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
	require.NoError(t, err)
}
