package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/gomocks"
)

func TestAuditUseCase_ListAuditLogs(t *testing.T) {
	f := newLedgerFixture(t)
	alice := f.createWallet(t, "alice")
	f.createWallet(t, "bob")

	_, err := f.registry.DeactivateWallet(context.Background(), "alice")
	require.NoError(t, err)

	uc := usecase.NewAuditUseCase(f.audit)

	created, err := uc.ListAuditLogs(context.Background(), domain.AuditFilter{Action: domain.AuditActionWalletCreate})
	require.NoError(t, err)
	assert.Len(t, created, 2)

	forAlice, err := uc.ListAuditLogs(context.Background(), domain.AuditFilter{ResourceID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)

	page, err := uc.ListAuditLogs(context.Background(), domain.AuditFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestAuditUseCase_ClampsPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := gomocks.NewMockAuditRepository(ctrl)

	repo.EXPECT().
		List(gomock.Any(), domain.AuditFilter{Action: domain.AuditActionReconcile, Limit: domain.MaxPageSize, Offset: 0}).
		Return([]*domain.AuditLog{}, nil)

	logs, err := usecase.NewAuditUseCase(repo).ListAuditLogs(context.Background(), domain.AuditFilter{
		Action: domain.AuditActionReconcile,
		Limit:  domain.MaxPageSize * 5,
		Offset: -3,
	})
	require.NoError(t, err)
	assert.Empty(t, logs)
}
