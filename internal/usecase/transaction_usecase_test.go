package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestTransactionUseCase_Deposit(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	entry, err := f.engine.Deposit(context.Background(), usecase.DepositInput{
		UserID:      "alice",
		Amount:      domain.RequireMoney("100.00"),
		Description: "salary",
		ReferenceID: "payroll-42",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EntryKindDeposit, entry.Kind)
	assert.Equal(t, domain.EntryStatusCompleted, entry.Status)
	assert.Equal(t, int64(1), entry.Sequence)
	assert.Equal(t, "0.00", entry.BalanceBefore.String())
	assert.Equal(t, "100.00", entry.BalanceAfter.String())
	assert.Equal(t, "payroll-42", entry.ReferenceID)

	w := f.wallet(t, "alice")
	assert.Equal(t, "100.00", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)

	stored, err := f.entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, stored.Status)

	assert.Equal(t, []string{domain.EventTypeWalletCreated, domain.EventTypeDepositCompleted}, f.outbox.EventTypes())
	assert.Equal(t, 1, f.cache.Invalidations())
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestTransactionUseCase_FindDeposit(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	credit, err := f.engine.Deposit(context.Background(), usecase.DepositInput{
		UserID:      "alice",
		Amount:      domain.RequireMoney("25.00"),
		ReferenceID: "loan-9",
	})
	require.NoError(t, err)

	found, err := f.engine.FindDeposit(context.Background(), "loan-9")
	require.NoError(t, err)
	assert.Equal(t, credit.ID, found.ID)

	_, err = f.engine.FindDeposit(context.Background(), "loan-10")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestTransactionUseCase_ExactBalanceScenario(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "1000.50")

	_, err := f.engine.Withdraw(context.Background(), usecase.WithdrawInput{
		UserID: "alice",
		Amount: domain.RequireMoney("1000.51"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "1000.50", insufficient.Current.String())
	assert.Equal(t, "1000.51", insufficient.Requested.String())
	assert.Equal(t, "1000.50", f.wallet(t, "alice").Balance.String())

	entry := f.withdraw(t, "alice", "1000.50", "")
	assert.Equal(t, domain.EntryStatusPending, entry.Status)
	assert.Equal(t, int64(2), entry.Sequence)
	assert.Equal(t, "0.00", entry.BalanceAfter.String())

	w := f.wallet(t, "alice")
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, int64(2), w.Version)
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestTransactionUseCase_DepositPastMaximumBalance(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", domain.MaxAmount)

	_, err := f.engine.Deposit(context.Background(), usecase.DepositInput{
		UserID: "alice",
		Amount: domain.RequireMoney("1.00"),
	})
	require.ErrorIs(t, err, domain.ErrOverflow)

	w := f.wallet(t, "alice")
	assert.Equal(t, domain.MaxAmount, w.Balance.String())
	assert.Equal(t, int64(1), w.Version)
	assert.Len(t, f.entries.All(), 1, "a rejected deposit leaves no entry")

	_, err = domain.ParseMoney(w.Balance.String())
	assert.NoError(t, err)
}

// Random two-decimal deposits and withdrawals through the engine must leave
// the wallet at exactly sum(deposits) - sum(accepted withdrawals), with every
// accepted operation on a valid chain.
func TestTransactionUseCase_RandomOperationsExact(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	var cents, applied int64
	for i := 0; i < 10000; i++ {
		minor := rng.Int63n(100_000) + 1
		amount, err := domain.MoneyOf(minor)
		require.NoError(t, err)

		if rng.Intn(2) == 0 {
			_, err := f.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: amount})
			require.NoError(t, err, "op %d", i)
			cents += minor
			applied++
			continue
		}

		_, err = f.engine.Withdraw(ctx, usecase.WithdrawInput{UserID: "alice", Amount: amount})
		if minor > cents {
			require.ErrorIs(t, err, domain.ErrInsufficientBalance, "op %d", i)
			continue
		}
		require.NoError(t, err, "op %d", i)
		cents -= minor
		applied++
	}

	w := f.wallet(t, "alice")
	assert.Equal(t, cents, w.Balance.MinorUnits())
	assert.Equal(t, applied, w.Version)

	report := f.chain(t, "alice")
	assert.True(t, report.Valid, "violations: %v", report.Violations)
}

func TestTransactionUseCase_Execute_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.ExecuteInput
		errorType error
	}{
		{
			name:      "zero amount",
			input:     usecase.ExecuteInput{UserID: "alice", Kind: domain.EntryKindDeposit, Amount: domain.ZeroMoney},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:      "unknown kind",
			input:     usecase.ExecuteInput{UserID: "alice", Kind: "TRANSFER", Amount: domain.RequireMoney("1.00")},
			errorType: domain.ErrInvalidKind,
		},
		{
			name:      "empty user id",
			input:     usecase.ExecuteInput{Kind: domain.EntryKindDeposit, Amount: domain.RequireMoney("1.00")},
			errorType: domain.ErrInvalidUserID,
		},
		{
			name: "description too long",
			input: usecase.ExecuteInput{
				UserID:      "alice",
				Kind:        domain.EntryKindWithdraw,
				Amount:      domain.RequireMoney("1.00"),
				Description: strings.Repeat("x", domain.MaxDescriptionLength+1),
			},
			errorType: domain.ErrInvalidDescription,
		},
		{
			name: "reference too long",
			input: usecase.ExecuteInput{
				UserID:      "alice",
				Kind:        domain.EntryKindDeposit,
				Amount:      domain.RequireMoney("1.00"),
				ReferenceID: strings.Repeat("r", domain.MaxReferenceIDLength+1),
			},
			errorType: domain.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.createWallet(t, "alice")
			begun, _, _ := f.txManager.Stats()

			_, err := f.engine.Execute(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.errorType)

			after, _, _ := f.txManager.Stats()
			assert.Equal(t, begun, after, "no transaction should be opened for invalid input")
			assert.Empty(t, f.entries.All())
		})
	}
}

func TestTransactionUseCase_Execute_WalletState(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "10.00")

	_, err := f.engine.Deposit(context.Background(), usecase.DepositInput{UserID: "bob", Amount: domain.RequireMoney("1.00")})
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)

	_, err = f.registry.DeactivateWallet(context.Background(), "alice")
	require.NoError(t, err)

	_, err = f.engine.Deposit(context.Background(), usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
	assert.ErrorIs(t, err, domain.ErrWalletInactive)

	_, err = f.engine.Withdraw(context.Background(), usecase.WithdrawInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
	assert.ErrorIs(t, err, domain.ErrWalletInactive)

	assert.Equal(t, "10.00", f.wallet(t, "alice").Balance.String())
	assert.Len(t, f.entries.All(), 1)
}

func TestTransactionUseCase_ConcurrentDeposits(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Deposit(context.Background(), usecase.DepositInput{
				UserID: "alice",
				Amount: domain.RequireMoney("1.01"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	w := f.wallet(t, "alice")
	assert.Equal(t, "50.50", w.Balance.String())
	assert.Equal(t, int64(workers), w.Version)

	report := f.chain(t, "alice")
	assert.True(t, report.Valid, "violations: %v", report.Violations)
	assert.Equal(t, workers, report.Entries)
}

func TestTransactionUseCase_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "10.00")

	const workers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Withdraw(context.Background(), usecase.WithdrawInput{
				UserID: "alice",
				Amount: domain.RequireMoney("1.00"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, insufficient)
	assert.True(t, f.wallet(t, "alice").Balance.IsZero())
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestTransactionUseCase_StorageFailureRecordsFailedEntry(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "25.00")

	f.wallets.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, version int64, updatedAt time.Time) error {
		return errors.New("connection reset by peer")
	}

	_, err := f.engine.Withdraw(context.Background(), usecase.WithdrawInput{
		UserID: "alice",
		Amount: domain.RequireMoney("5.00"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset by peer")

	f.wallets.UpdateBalanceFunc = nil

	w := f.wallet(t, "alice")
	assert.Equal(t, "25.00", w.Balance.String())
	assert.Equal(t, int64(1), w.Version)

	entries := f.entries.All()
	require.Len(t, entries, 2)
	failed := entries[1]
	assert.Equal(t, domain.EntryStatusFailed, failed.Status)
	assert.Equal(t, domain.EntryKindWithdraw, failed.Kind)
	assert.Equal(t, "5.00", failed.Amount.String())
	assert.False(t, failed.IsApplied())

	assert.True(t, f.chain(t, "alice").Valid)
	assert.Equal(t, []string{domain.EventTypeWalletCreated, domain.EventTypeDepositCompleted}, f.outbox.EventTypes())

	// the next operation continues the chain where it left off
	entry := f.withdraw(t, "alice", "5.00", "")
	assert.Equal(t, int64(2), entry.Sequence)
}

func TestTransactionUseCase_CommitFailureRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	f.txManager.CommitFunc = func(ctx context.Context) error {
		return errors.New("commit failed")
	}
	_, err := f.engine.Deposit(context.Background(), usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("3.00")})
	require.Error(t, err)
	f.txManager.CommitFunc = nil

	assert.True(t, f.wallet(t, "alice").Balance.IsZero())
	for _, e := range f.entries.All() {
		assert.NotEqual(t, domain.EntryStatusCompleted, e.Status)
	}
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestTransactionUseCase_RetriesTransientErrors(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")

	retrier := &mocks.MockRetrier{Attempts: 3, RetryOn: func(error) bool { return true }}
	f.engine.WithRetrier(retrier)

	calls := 0
	f.entries.CreateFunc = func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
		calls++
		if calls == 1 {
			return errors.New("deadlock detected")
		}
		f.entries.CreateFunc = nil
		return f.entries.Create(ctx, tx, entry)
	}

	entry, err := f.engine.Deposit(context.Background(), usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("7.25")})
	require.NoError(t, err)

	assert.Equal(t, 2, retrier.Calls())
	assert.Equal(t, int64(1), entry.Sequence)
	assert.Len(t, f.entries.All(), 1)
	assert.Equal(t, "7.25", f.wallet(t, "alice").Balance.String())
}

func TestTransactionUseCase_LockTimeout(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.engine.WithTransactionTimeout(50 * time.Millisecond)

	holder, err := f.txManager.Begin(context.Background())
	require.NoError(t, err)
	_, err = f.wallets.GetByUserIDForUpdate(context.Background(), holder, "alice")
	require.NoError(t, err)

	_, err = f.engine.Deposit(context.Background(), usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
	require.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Empty(t, f.entries.All())

	require.NoError(t, holder.Rollback(context.Background()))

	f.deposit(t, "alice", "1.00")
	assert.Equal(t, "1.00", f.wallet(t, "alice").Balance.String())
}

func TestTransactionUseCase_Cancellation(t *testing.T) {
	t.Run("before the lock", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.createWallet(t, "alice")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.entries.All())
		assert.True(t, f.wallet(t, "alice").Balance.IsZero())
	})

	t.Run("while waiting for the lock", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.createWallet(t, "alice")

		holder, err := f.txManager.Begin(context.Background())
		require.NoError(t, err)
		_, err = f.wallets.GetByUserIDForUpdate(context.Background(), holder, "alice")
		require.NoError(t, err)
		defer func() { _ = holder.Rollback(context.Background()) }()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := f.engine.Deposit(ctx, usecase.DepositInput{UserID: "alice", Amount: domain.RequireMoney("1.00")})
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("deposit did not return after cancellation")
		}
		assert.Empty(t, f.entries.All())
	})
}
