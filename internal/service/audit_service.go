package service

import (
	"context"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
)

// AuditService exposes the audit trail read-only. Entries are only ever
// written inside the mutating transactions of the other services.
type AuditService interface {
	List(ctx context.Context, action, entityType, entityID string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, action, entityType, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	return s.repo.List(ctx, action, entityType, entityID, page, limit)
}
