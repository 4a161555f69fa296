// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for site settings.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// ListSiteSettings returns every setting ordered by key.
func ListSiteSettings(ctx context.Context, db *gorm.DB) ([]domain.SiteSetting, error) {
	var out []domain.SiteSetting
	err := db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&out).Error
	return out, err
}

// GetSiteSetting fetches one setting, or ErrNotFound.
func GetSiteSetting(ctx context.Context, db *gorm.DB, key string) (*domain.SiteSetting, error) {
	var s domain.SiteSetting
	if err := db.WithContext(ctx).Where(&domain.SiteSetting{Key: key}).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSiteSetting inserts the setting or overwrites its value, and returns
// the stored row.
func UpsertSiteSetting(ctx context.Context, db *gorm.DB, key, value, updatedBy string) (*domain.SiteSetting, error) {
	s := &domain.SiteSetting{
		Key:       key,
		Value:     value,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	return s, nil
}
