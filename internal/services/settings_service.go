// Package services – SettingsService
//
// This file implements the SettingsService, which manages the public contact
// settings shown on the site (email, phone, social links). Keys are a small
// fixed vocabulary of lower-case identifiers; values are trimmed and capped.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
)

// MaxSettingValueLen caps a stored setting value by rune length.
const MaxSettingValueLen = 500

var settingKeyRE = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// SettingsRepo defines the repository contract required by SettingsService.
type SettingsRepo interface {
	ListSiteSettings(ctx context.Context, db *gorm.DB) ([]domain.SiteSetting, error)
	UpsertSiteSetting(ctx context.Context, db *gorm.DB, key, value, updatedBy string) (*domain.SiteSetting, error)
}

// SettingsService lists and updates site settings.
type SettingsService struct {
	DB   *gorm.DB
	Repo SettingsRepo
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB, r SettingsRepo) *SettingsService {
	return &SettingsService{DB: db, Repo: r}
}

// List returns all settings ordered by key.
func (s *SettingsService) List(ctx context.Context) ([]domain.SiteSetting, error) {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	items, err := s.Repo.ListSiteSettings(ctx, s.DB)
	if items == nil && err == nil {
		items = []domain.SiteSetting{}
	}
	return items, err
}

// Set validates and stores one setting on behalf of updatedBy.
func (s *SettingsService) Set(ctx context.Context, key, value, updatedBy string) (*domain.SiteSetting, error) {
	tr := otel.Tracer("services/SettingsService")
	ctx, span := tr.Start(ctx, "Set",
		trace.WithAttributes(attribute.String("setting.key", key)),
	)
	defer span.End()

	key = strings.ToLower(strings.TrimSpace(key))
	if !settingKeyRE.MatchString(key) {
		return nil, fmt.Errorf("%w: key must be lower-case letters, digits or underscores", ErrInvalidInput)
	}
	value = strings.TrimSpace(value)
	if !utf8.ValidString(value) {
		return nil, fmt.Errorf("%w: value must be valid UTF-8", ErrInvalidInput)
	}
	if utf8.RuneCountInString(value) > MaxSettingValueLen {
		return nil, fmt.Errorf("%w: value exceeds %d characters", ErrInvalidInput, MaxSettingValueLen)
	}
	return s.Repo.UpsertSiteSetting(ctx, s.DB, key, value, updatedBy)
}
