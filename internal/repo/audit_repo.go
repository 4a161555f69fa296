// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only audit log repository.
//
// The audit log is insert-only: there is deliberately no update or delete
// function here.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// InsertAuditLog appends one audit entry. A missing ID is filled with a new
// UUID and a zero CreatedAt with the current UTC time.
func InsertAuditLog(ctx context.Context, db *gorm.DB, e *domain.AuditLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// ListAuditLogs returns the newest entries first, optionally filtered by
// resource type. A limit <= 0 returns every row.
func ListAuditLogs(ctx context.Context, db *gorm.DB, rt domain.ResourceType, action domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if rt != "" {
		q = q.Where("resource_type = ?", rt)
	}
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.AuditLog
	err := q.Find(&out).Error
	return out, err
}

// AuditAppender adapts InsertAuditLog to the audit package's Appender.
type AuditAppender struct {
	DB *gorm.DB
}

// AppendAudit implements audit.Appender.
func (a AuditAppender) AppendAudit(ctx context.Context, e *domain.AuditLog) error {
	return InsertAuditLog(ctx, a.DB, e)
}
