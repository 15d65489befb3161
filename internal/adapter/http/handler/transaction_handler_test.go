package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type transactionServiceStub struct {
	depositFn  func(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error)
	withdrawFn func(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error)
}

func (s *transactionServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
	return s.depositFn(ctx, input)
}

func (s *transactionServiceStub) Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error) {
	return s.withdrawFn(ctx, input)
}

func TestTransactionHandler_Deposit(t *testing.T) {
	var captured usecase.DepositInput
	handler := NewTransactionHandler(&transactionServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
			captured = input
			return &domain.LedgerEntry{
				ID:            "e-1",
				WalletID:      "w-1",
				Kind:          domain.EntryKindDeposit,
				Status:        domain.EntryStatusCompleted,
				Amount:        input.Amount,
				BalanceBefore: domain.ZeroMoney,
				BalanceAfter:  input.Amount,
				Sequence:      1,
				ReferenceID:   input.ReferenceID,
			}, nil
		},
	})

	body := jsonBody(t, dto.DepositRequest{Amount: "1000.50", Description: "salary", ReferenceID: "ref-1"})
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/wallets/alice/deposits", body), map[string]string{"userID": "alice"})
	rec := httptest.NewRecorder()

	handler.Deposit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "alice" || captured.Amount.String() != "1000.50" || captured.ReferenceID != "ref-1" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["amount"] != "1000.50" || resp["balance_after"] != "1000.50" || resp["status"] != "COMPLETED" {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestTransactionHandler_DepositRejectsBadAmountBeforeUseCase(t *testing.T) {
	called := false
	handler := NewTransactionHandler(&transactionServiceStub{
		depositFn: func(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
			called = true
			return nil, nil
		},
	})

	for _, body := range []string{`{"amount":"0"}`, `{"amount":"-5"}`, `{"amount":"1.999"}`, `{}`} {
		req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), map[string]string{"userID": "alice"})
		rec := httptest.NewRecorder()
		handler.Deposit(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}

	if called {
		t.Fatal("use case must not be called with an invalid amount")
	}
}

func TestTransactionHandler_Withdraw(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"pending", nil, http.StatusAccepted},
		{
			"insufficient",
			&domain.InsufficientBalanceError{Current: domain.RequireMoney("1000.50"), Requested: domain.RequireMoney("1000.51")},
			http.StatusUnprocessableEntity,
		},
		{"inactive", domain.ErrWalletInactive, http.StatusConflict},
		{"no wallet", domain.ErrWalletNotFound, http.StatusNotFound},
		{"lock timeout", domain.ErrLockTimeout, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(&transactionServiceStub{
				withdrawFn: func(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.LedgerEntry{ID: "e-2", Kind: domain.EntryKindWithdraw, Status: domain.EntryStatusPending, Amount: input.Amount}, nil
				},
			})

			body := jsonBody(t, dto.WithdrawRequest{Amount: "1000.51"})
			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", body), map[string]string{"userID": "alice"})
			rec := httptest.NewRecorder()
			handler.Withdraw(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, rec.Code, rec.Body.String())
			}
		})
	}
}
