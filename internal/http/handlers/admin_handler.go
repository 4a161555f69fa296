// Admin HTTP handlers.
//
// Every route in this file sits behind RequireAdmin, so the caller's email
// and subject are always present on the context.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/domain"
	"github.com/tbourn/portfolio-backend/internal/repo"
	"github.com/tbourn/portfolio-backend/internal/services"
	"github.com/tbourn/portfolio-backend/internal/utils"
)

//
// DTOs
//

// PutSettingRequest is the JSON payload for writing one site setting.
type PutSettingRequest struct {
	Value string `json:"value" example:"me@example.com"`
}

// CreateShareLinkRequest is the JSON payload for creating a share link.
type CreateShareLinkRequest struct {
	// Label describes who the link is for (1-120 chars).
	Label string `json:"label" binding:"required" example:"ACME recruiter"`
	// ExpiresInHours sets a lifetime; 0 or absent means no expiry.
	ExpiresInHours int `json:"expires_in_hours" example:"168"`
}

// ListShareLinksResponse wraps a page of share links and pagination information.
type ListShareLinksResponse struct {
	ShareLinks []domain.ShareLink `json:"share_links"`
	Pagination Pagination         `json:"pagination"`
}

// ListAuditLogsResponse wraps recent audit entries.
type ListAuditLogsResponse struct {
	AuditLogs []domain.AuditLog `json:"audit_logs"`
}

//
// Settings
//

// ListSettings godoc
// @ID          listSettings
// @Summary     List site settings
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.SiteSetting
// @Failure     401  {object}  handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/settings [get]
func (h *Handlers) ListSettings(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list settings")
		return
	}
	ok(c, http.StatusOK, items)
}

// PutSetting godoc
// @ID          putSetting
// @Summary     Create or update a site setting
// @Description Writes one key/value pair and records an UPDATE audit entry.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       key   path  string                      true "Setting key"  example(email)
// @Param       body  body  handlers.PutSettingRequest  true "New value"
// @Success     200  {object}  domain.SiteSetting
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/settings/{key} [put]
func (h *Handlers) PutSetting(c *gin.Context) {
	var req PutSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	email, _ := actor(c)

	s, err := h.settings.Set(c.Request.Context(), c.Param("key"), req.Value, email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not save setting")
		return
	}
	h.record(c, domain.ActionUpdate, domain.ResourceSiteSettings, s.Key, gin.H{"value": s.Value})
	ok(c, http.StatusOK, s)
}

//
// Share links
//

// ListShareLinks godoc
// @ID          listShareLinks
// @Summary     List share links (paginated)
// @Description Returns a page of share links. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListShareLinksResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/share-links [get]
func (h *Handlers) ListShareLinks(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.links.(*services.ShareLinkService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ShareLinksStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"share-links:%d:%d:%d:%d"`, count, ts, page, pageSize)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.links.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list share links")
		return
	}
	ok(c, http.StatusOK, ListShareLinksResponse{
		ShareLinks: items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// CreateShareLink godoc
// @ID          createShareLink
// @Summary     Create a share link
// @Description Issues a new opaque token and records a CREATE audit entry.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.CreateShareLinkRequest  true "Share link payload"
// @Success     201  {object}  domain.ShareLink
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/share-links [post]
func (h *Handlers) CreateShareLink(c *gin.Context) {
	var req CreateShareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Label) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "label required (1-120 chars)")
		return
	}
	email, _ := actor(c)

	l, err := h.links.Create(c.Request.Context(), req.Label, req.ExpiresInHours, email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not create share link")
		return
	}
	h.record(c, domain.ActionCreate, domain.ResourceShareLinks, l.ID, gin.H{
		"label":      l.Label,
		"expires_at": l.ExpiresAt,
	})
	ok(c, http.StatusCreated, l)
}

// DeleteShareLink godoc
// @ID          deleteShareLink
// @Summary     Revoke a share link
// @Tags        Admin
// @Security    BearerAuth
// @Param       id  path  string  true "Share link ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Share link not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/share-links/{id} [delete]
func (h *Handlers) DeleteShareLink(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "share link id must be a UUID")
		return
	}
	if err := h.links.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "share link not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, "could not delete share link")
		return
	}
	h.record(c, domain.ActionDelete, domain.ResourceShareLinks, id, nil)
	noContent(c)
}

//
// Audit log
//

// ListAuditLogs godoc
// @ID          listAuditLogs
// @Summary     List recent audit entries
// @Description Newest first. Optionally filtered by resource_type and action.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       resource_type  query  string  false "Resource type"  Enums(whitelisted_emails, site_settings, cv_references, share_links, cv_versions)
// @Param       action         query  string  false "Action"         Enums(CREATE, UPDATE, DELETE)
// @Param       limit          query  int     false "Max entries"    minimum(1) maximum(200) default(50)
// @Success     200  {object} handlers.ListAuditLogsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthenticated"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/audit-logs [get]
func (h *Handlers) ListAuditLogs(c *gin.Context) {
	rt := domain.ResourceType(strings.TrimSpace(c.Query("resource_type")))
	action := domain.AuditAction(strings.TrimSpace(c.Query("action")))
	limit := utils.AtoiDefault(c.Query("limit"), 0)

	items, err := h.audits.Recent(c.Request.Context(), rt, action, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list audit logs")
		return
	}
	ok(c, http.StatusOK, ListAuditLogsResponse{AuditLogs: items})
}
