package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
)

func TestWithdrawalUseCase_ApproveWithdraw(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "100.00")
	pending := f.withdraw(t, "alice", "40.00", "atm")

	ctx := domain.ContextWithActor(context.Background(), domain.Actor{ID: "admin-1", Role: domain.RoleAdmin})
	ctx = context.WithValue(ctx, logging.RequestIDKey, "req-7")

	approved, err := f.withdrawals.ApproveWithdraw(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, approved.Status)
	assert.Equal(t, "atm", approved.Description)

	w := f.wallet(t, "alice")
	assert.Equal(t, "60.00", w.Balance.String())
	assert.Equal(t, int64(2), w.Version)

	stored, err := f.entries.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, stored.Status)

	logs, err := f.audit.List(context.Background(), domain.AuditFilter{Action: domain.AuditActionWithdrawApprove})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-1", logs[0].ActorID)
	assert.Equal(t, "req-7", logs[0].RequestID)
	assert.Equal(t, pending.ID, logs[0].ResourceID)

	assert.Contains(t, f.outbox.EventTypes(), domain.EventTypeWithdrawApproved)
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestWithdrawalUseCase_RejectWithdraw(t *testing.T) {
	tests := []struct {
		name        string
		reason      string
		description string
	}{
		{name: "with reason", reason: "suspicious activity", description: "atm - Rejected: suspicious activity"},
		{name: "without reason", reason: "", description: "atm - Rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.createWallet(t, "alice")
			f.deposit(t, "alice", "100.00")
			pending := f.withdraw(t, "alice", "40.00", "atm")
			assert.Equal(t, "60.00", f.wallet(t, "alice").Balance.String())

			rejected, err := f.withdrawals.RejectWithdraw(context.Background(), pending.ID, tt.reason)
			require.NoError(t, err)
			assert.Equal(t, domain.EntryStatusFailed, rejected.Status)
			assert.Equal(t, tt.description, rejected.Description)

			w := f.wallet(t, "alice")
			assert.Equal(t, "100.00", w.Balance.String())
			assert.Equal(t, int64(3), w.Version)

			entries := f.entries.All()
			require.Len(t, entries, 3)
			refund := entries[2]
			assert.Equal(t, domain.EntryKindDeposit, refund.Kind)
			assert.Equal(t, domain.EntryStatusCompleted, refund.Status)
			assert.Equal(t, pending.ID, refund.ReferenceID)
			assert.Equal(t, domain.RefundDescription(pending.ID), refund.Description)
			assert.Equal(t, int64(3), refund.Sequence)
			assert.Equal(t, "60.00", refund.BalanceBefore.String())
			assert.Equal(t, "100.00", refund.BalanceAfter.String())

			assert.Contains(t, f.outbox.EventTypes(), domain.EventTypeWithdrawRejected)
			assert.GreaterOrEqual(t, f.cache.Invalidations(), 3)

			report := f.chain(t, "alice")
			assert.True(t, report.Valid, "violations: %v", report.Violations)
		})
	}
}

func TestWithdrawalUseCase_RejectRefundOverflow(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "1.00")
	pending := f.withdraw(t, "alice", "1.00", "atm")
	f.deposit(t, "alice", domain.MaxAmount)

	_, err := f.withdrawals.RejectWithdraw(context.Background(), pending.ID, "")
	require.ErrorIs(t, err, domain.ErrOverflow)

	stored, err := f.entries.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusPending, stored.Status)

	w := f.wallet(t, "alice")
	assert.Equal(t, domain.MaxAmount, w.Balance.String())
	assert.Equal(t, int64(3), w.Version)
	assert.Len(t, f.entries.All(), 3)
	assert.True(t, f.chain(t, "alice").Valid)
}

func TestWithdrawalUseCase_DecisionIsFinal(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "50.00")
	approved := f.withdraw(t, "alice", "10.00", "")
	rejected := f.withdraw(t, "alice", "10.00", "")

	_, err := f.withdrawals.ApproveWithdraw(context.Background(), approved.ID)
	require.NoError(t, err)
	_, err = f.withdrawals.RejectWithdraw(context.Background(), rejected.ID, "no")
	require.NoError(t, err)
	balance := f.wallet(t, "alice").Balance.String()

	for _, id := range []string{approved.ID, rejected.ID} {
		_, err = f.withdrawals.ApproveWithdraw(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrInvalidState)

		_, err = f.withdrawals.RejectWithdraw(context.Background(), id, "again")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}

	assert.Equal(t, balance, f.wallet(t, "alice").Balance.String())
	assert.Equal(t, "40.00", balance)
}

func TestWithdrawalUseCase_InvalidTargets(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	deposit := f.deposit(t, "alice", "5.00")

	_, err := f.withdrawals.ApproveWithdraw(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	_, err = f.withdrawals.ApproveWithdraw(context.Background(), deposit.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var stateErr *domain.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, domain.EntryKindDeposit, stateErr.Kind)

	_, err = f.withdrawals.RejectWithdraw(context.Background(), deposit.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestWithdrawalUseCase_RejectReasonTooLong(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "5.00")
	pending := f.withdraw(t, "alice", "5.00", "")

	long := make([]rune, domain.MaxReasonLength+1)
	for i := range long {
		long[i] = 'é'
	}

	_, err := f.withdrawals.RejectWithdraw(context.Background(), pending.ID, string(long))
	require.ErrorIs(t, err, domain.ErrInvalidDescription)

	stored, err := f.entries.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusPending, stored.Status)
}

func TestWithdrawalUseCase_DecisionOnInactiveWallet(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "5.00")
	pending := f.withdraw(t, "alice", "5.00", "")

	_, err := f.registry.DeactivateWallet(context.Background(), "alice")
	require.NoError(t, err)

	_, err = f.withdrawals.RejectWithdraw(context.Background(), pending.ID, "frozen")
	require.NoError(t, err)
	assert.Equal(t, "5.00", f.wallet(t, "alice").Balance.String())
}

func TestWithdrawalUseCase_ConcurrentDecisions(t *testing.T) {
	f := newLedgerFixture(t)
	f.createWallet(t, "alice")
	f.deposit(t, "alice", "100.00")
	pending := f.withdraw(t, "alice", "30.00", "")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		refused int
	)

	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidState):
			refused++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.withdrawals.ApproveWithdraw(context.Background(), pending.ID)
			record(err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.withdrawals.RejectWithdraw(context.Background(), pending.ID, "race")
			record(err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 19, refused)

	stored, err := f.entries.GetByID(context.Background(), pending.ID)
	require.NoError(t, err)
	switch stored.Status {
	case domain.EntryStatusCompleted:
		assert.Equal(t, "70.00", f.wallet(t, "alice").Balance.String())
	case domain.EntryStatusFailed:
		assert.Equal(t, "100.00", f.wallet(t, "alice").Balance.String())
	default:
		t.Fatalf("withdrawal left in status %s", stored.Status)
	}
	assert.True(t, f.chain(t, "alice").Valid)
}
