// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for share links.
//
// Error semantics match the rest of the package: a missing row yields
// ErrNotFound, and other database errors are returned unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateShareLink inserts a new link with a UUID primary key. The caller
// supplies the public token.
func CreateShareLink(ctx context.Context, db *gorm.DB, token, label, createdBy string, expiresAt *time.Time) (*domain.ShareLink, error) {
	now := time.Now().UTC()
	l := &domain.ShareLink{
		ID:        uuid.NewString(),
		Token:     token,
		Label:     label,
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// CountShareLinks returns the number of live (not deleted) links.
func CountShareLinks(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ShareLink{}).Count(&total).Error
	return total, err
}

// ListShareLinksPage returns a page of links, newest first.
func ListShareLinksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ShareLink, error) {
	var out []domain.ShareLink
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetShareLinkByToken fetches a live link by its public token.
func GetShareLinkByToken(ctx context.Context, db *gorm.DB, token string) (*domain.ShareLink, error) {
	var l domain.ShareLink
	if err := db.WithContext(ctx).Where("token = ?", token).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteShareLink soft-deletes the link with the given id. It returns
// ErrNotFound when no live link matched.
func DeleteShareLink(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ShareLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
