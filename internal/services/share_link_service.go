// Package services – ShareLinkService
//
// This file implements the ShareLinkService, which manages the private links
// that let a recruiter view the full CV without signing in. Tokens are random
// and opaque; a link can carry an optional expiry.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
	"github.com/tbourn/portfolio-backend/internal/utils"
)

const (
	// MaxShareLinkLabelLen caps labels by rune length.
	MaxShareLinkLabelLen = 120
	// MaxShareLinkTTL bounds expires_in_hours.
	MaxShareLinkTTL = 365 * 24 * time.Hour
)

// ShareLinkRepo defines the repository contract required by ShareLinkService.
type ShareLinkRepo interface {
	CreateShareLink(ctx context.Context, db *gorm.DB, token, label, createdBy string, expiresAt *time.Time) (*domain.ShareLink, error)
	CountShareLinks(ctx context.Context, db *gorm.DB) (int64, error)
	ListShareLinksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ShareLink, error)
	DeleteShareLink(ctx context.Context, db *gorm.DB, id string) error
	GetShareLinkByToken(ctx context.Context, db *gorm.DB, token string) (*domain.ShareLink, error)
}

// ShareLinkService creates, lists and revokes share links.
type ShareLinkService struct {
	DB   *gorm.DB
	Repo ShareLinkRepo

	// Now and NewToken are replaceable in tests.
	Now      func() time.Time
	NewToken func() string
}

// NewShareLinkService constructs a ShareLinkService with a wall clock and
// UUID-derived tokens.
func NewShareLinkService(db *gorm.DB, r ShareLinkRepo) *ShareLinkService {
	return &ShareLinkService{
		DB:       db,
		Repo:     r,
		Now:      time.Now,
		NewToken: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Create stores a new link. expiresInHours <= 0 means the link never expires.
func (s *ShareLinkService) Create(ctx context.Context, label string, expiresInHours int, createdBy string) (*domain.ShareLink, error) {
	tr := otel.Tracer("services/ShareLinkService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("share_link.expires_in_hours", expiresInHours)),
	)
	defer span.End()

	label = collapseSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(label) > MaxShareLinkLabelLen {
		return nil, fmt.Errorf("%w: label exceeds %d characters", ErrInvalidInput, MaxShareLinkLabelLen)
	}

	var expiresAt *time.Time
	if expiresInHours > 0 {
		ttl := time.Duration(expiresInHours) * time.Hour
		if ttl > MaxShareLinkTTL {
			return nil, fmt.Errorf("%w: expires_in_hours exceeds %d", ErrInvalidInput, int(MaxShareLinkTTL/time.Hour))
		}
		t := s.Now().UTC().Add(ttl)
		expiresAt = &t
	}
	return s.Repo.CreateShareLink(ctx, s.DB, s.NewToken(), label, createdBy, expiresAt)
}

// ListPage returns a page of links (newest first) and the total count.
// It applies defaults for invalid page/pageSize.
func (s *ShareLinkService) ListPage(ctx context.Context, page, pageSize int) ([]domain.ShareLink, int64, error) {
	tr := otel.Tracer("services/ShareLinkService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountShareLinks(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ShareLink{}, 0, nil
	}

	items, err := s.Repo.ListShareLinksPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Delete revokes the link with the given id.
func (s *ShareLinkService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/ShareLinkService")
	ctx, span := tr.Start(ctx, "Delete")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if err := s.Repo.DeleteShareLink(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Resolve returns the live link for a public token. Unknown, revoked and
// expired tokens all yield ErrNotFound.
func (s *ShareLinkService) Resolve(ctx context.Context, token string) (*domain.ShareLink, error) {
	tr := otel.Tracer("services/ShareLinkService")
	ctx, span := tr.Start(ctx, "Resolve")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" || len(token) > 64 {
		return nil, ErrNotFound
	}
	l, err := s.Repo.GetShareLinkByToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if l.Expired(s.Now()) {
		return nil, ErrNotFound
	}
	return l, nil
}

var spaceRE = regexp.MustCompile(`\s+`)

// collapseSpace trims s and collapses inner whitespace runs to one space.
func collapseSpace(s string) string {
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}
