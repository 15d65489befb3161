package dto

import (
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	UserID string `json:"user_id"`
}

// DepositRequest represents a request to credit a wallet.
// Amount is a decimal string such as "1000.50".
type DepositRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// ToUseCaseInput parses the amount and converts to use case input.
func (r *DepositRequest) ToUseCaseInput(userID string) (usecase.DepositInput, error) {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return usecase.DepositInput{}, err
	}

	return usecase.DepositInput{
		UserID:      userID,
		Amount:      amount,
		Description: r.Description,
		ReferenceID: r.ReferenceID,
	}, nil
}

// WithdrawRequest represents a withdrawal request awaiting approval.
type WithdrawRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput parses the amount and converts to use case input.
func (r *WithdrawRequest) ToUseCaseInput(userID string) (usecase.WithdrawInput, error) {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return usecase.WithdrawInput{}, err
	}

	return usecase.WithdrawInput{
		UserID:      userID,
		Amount:      amount,
		Description: r.Description,
	}, nil
}

// RejectWithdrawRequest carries an optional rejection reason.
type RejectWithdrawRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
