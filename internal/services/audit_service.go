// Package services – AuditService
//
// Read access to the audit log for the admin dashboard. Writes go through
// audit.Logger, never through this service.
package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// MaxAuditPage caps how many audit entries one request returns.
const MaxAuditPage = 200

// AuditRepo defines the repository contract required by AuditService.
type AuditRepo interface {
	ListAuditLogs(ctx context.Context, db *gorm.DB, rt domain.ResourceType, action domain.AuditAction, limit int) ([]domain.AuditLog, error)
}

// AuditService lists recent audit entries.
type AuditService struct {
	DB   *gorm.DB
	Repo AuditRepo
}

// Recent returns up to limit entries, newest first, optionally filtered by
// resource type and action ("" means all).
func (s *AuditService) Recent(ctx context.Context, rt domain.ResourceType, action domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "Recent",
		trace.WithAttributes(
			attribute.String("resource_type", string(rt)),
			attribute.String("action", string(action)),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if rt != "" && !rt.Valid() {
		return nil, fmt.Errorf("%w: unknown resource_type %q", ErrInvalidInput, rt)
	}
	if action != "" && !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxAuditPage {
		limit = MaxAuditPage
	}
	items, err := s.Repo.ListAuditLogs(ctx, s.DB, rt, action, limit)
	if items == nil && err == nil {
		items = []domain.AuditLog{}
	}
	return items, err
}
