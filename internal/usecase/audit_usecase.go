package usecase

import (
	"context"

	"github.com/iho/gowallet/internal/domain"
)

// AuditUseCase reads the audit trail written by the registry and approval flows.
type AuditUseCase struct {
	auditRepo AuditRepository
}

func NewAuditUseCase(auditRepo AuditRepository) *AuditUseCase {
	return &AuditUseCase{auditRepo: auditRepo}
}

// ListAuditLogs returns matching audit records, newest first.
func (uc *AuditUseCase) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.auditRepo.List(ctx, filter)
}
