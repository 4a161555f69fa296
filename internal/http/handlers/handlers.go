// Package handlers exposes the portfolio backend's REST endpoints:
//
//   - GET    /api/settings                 (public site settings)
//   - GET    /api/share/{token}            (resolve a share link)
//   - POST   /api/cv/customize             (AI-tailored CV, rate limited)
//   - POST   /api/cv/export                (HTML + attachments to PDF)
//   - GET    /api/admin/settings           (admin)
//   - PUT    /api/admin/settings/{key}     (admin, audited)
//   - GET    /api/admin/share-links        (admin, paginated, ETag)
//   - POST   /api/admin/share-links        (admin, audited)
//   - DELETE /api/admin/share-links/{id}   (admin, audited)
//   - GET    /api/admin/audit-logs         (admin)
//
// Handlers are transport-thin: they bind input, call application services,
// and translate results into HTTP responses. Admin mutations are audited
// after the service call succeeds.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/portfolio-backend/internal/audit"
	"github.com/tbourn/portfolio-backend/internal/domain"
	"github.com/tbourn/portfolio-backend/internal/http/middleware"
	"github.com/tbourn/portfolio-backend/internal/services"
	"github.com/tbourn/portfolio-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SettingsService reads and writes public site settings.
type SettingsService interface {
	List(ctx context.Context) ([]domain.SiteSetting, error)
	Set(ctx context.Context, key, value, updatedBy string) (*domain.SiteSetting, error)
}

// ShareLinkService manages share links.
type ShareLinkService interface {
	Create(ctx context.Context, label string, expiresInHours int, createdBy string) (*domain.ShareLink, error)
	ListPage(ctx context.Context, page, pageSize int) ([]domain.ShareLink, int64, error)
	Delete(ctx context.Context, id string) error
	Resolve(ctx context.Context, token string) (*domain.ShareLink, error)
}

// AuditService lists recent audit entries.
type AuditService interface {
	Recent(ctx context.Context, rt domain.ResourceType, action domain.AuditAction, limit int) ([]domain.AuditLog, error)
}

// CustomizeService tailors a CV to a job description.
type CustomizeService interface {
	Customize(ctx context.Context, req services.CustomizeRequest) (*services.CustomizeResult, error)
}

// ExportService renders HTML plus allow-listed attachments to a PDF.
type ExportService interface {
	Export(ctx context.Context, html string, paths []string) ([]byte, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. Any service may be nil when the
// corresponding routes are not mounted.
type Handlers struct {
	settings  SettingsService
	links     ShareLinkService
	audits    AuditService
	customize CustomizeService
	export    ExportService
	audit     *audit.Logger
}

// Services bundles the dependencies passed to New.
type Services struct {
	Settings  SettingsService
	ShareLink ShareLinkService
	Audit     AuditService
	Customize CustomizeService
	Export    ExportService
	AuditLog  *audit.Logger
}

// New constructs and returns a Handlers instance bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		settings:  s.Settings,
		links:     s.ShareLink,
		audits:    s.Audit,
		customize: s.Customize,
		export:    s.Export,
		audit:     s.AuditLog,
	}
}

//
// Helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// actor returns the admin email and subject set by RequireAdmin.
func actor(c *gin.Context) (email string, userID *string) {
	email = c.GetString(middleware.CtxUserEmail)
	if sub := c.GetString(middleware.CtxUserID); sub != "" {
		userID = &sub
	}
	return email, userID
}

// record audits one admin mutation for the current request.
func (h *Handlers) record(c *gin.Context, action domain.AuditAction, rt domain.ResourceType, resourceID string, details any) {
	email, uid := actor(c)
	p := audit.Params{
		UserEmail:    email,
		UserID:       uid,
		Action:       action,
		ResourceType: rt,
		Details:      details,
		Request:      c.Request,
	}
	if resourceID != "" {
		p.ResourceID = &resourceID
	}
	h.audit.Record(c.Request.Context(), p)
}
