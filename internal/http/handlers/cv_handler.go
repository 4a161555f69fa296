// Public HTTP handlers: site settings, share-link resolution, CV
// customization and PDF export.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/portfolio-backend/internal/http/middleware"
	"github.com/tbourn/portfolio-backend/internal/render"
	"github.com/tbourn/portfolio-backend/internal/services"
)

//
// DTOs
//

// CustomizeCVRequest is the JSON payload for an AI-tailored CV.
type CustomizeCVRequest struct {
	CVMarkdown         string `json:"cv_markdown"         binding:"required" example:"# Jane Doe\n..."`
	JobDescription     string `json:"job_description"     binding:"required" example:"Senior Go engineer..."`
	CustomInstructions string `json:"custom_instructions" example:"Keep it to one page"`
	Language           string `json:"language"            example:"de"`
}

// CustomizeCVResponse carries the tailored CV.
type CustomizeCVResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty" example:"gemini-2.0-flash"`
}

// ExportCVRequest is the JSON payload for a PDF export.
type ExportCVRequest struct {
	HTML        string   `json:"html"        binding:"required"`
	Attachments []string `json:"attachments" example:"/working-life/documents/CV.pdf"`
}

// ShareLinkView is the public projection of a live share link.
type ShareLinkView struct {
	Valid     bool       `json:"valid"`
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

//
// Handlers
//

// PublicSettings godoc
// @ID          publicSettings
// @Summary     Public site settings
// @Description Returns all settings as a key/value object.
// @Tags        Public
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /settings [get]
func (h *Handlers) PublicSettings(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list settings")
		return
	}
	out := make(map[string]string, len(items))
	for _, s := range items {
		out[s.Key] = s.Value
	}
	c.Header("Cache-Control", "public, max-age=60")
	ok(c, http.StatusOK, out)
}

// ResolveShareLink godoc
// @ID          resolveShareLink
// @Summary     Resolve a share link
// @Description Unknown, revoked and expired tokens all answer 404.
// @Tags        Public
// @Produce     json
// @Param       token  path  string  true "Share token"
// @Success     200  {object}  handlers.ShareLinkView
// @Failure     404  {object}  handlers.ErrorResponse "Share link not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /share/{token} [get]
func (h *Handlers) ResolveShareLink(c *gin.Context) {
	l, err := h.links.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "share link not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not resolve share link")
		return
	}
	ok(c, http.StatusOK, ShareLinkView{Valid: true, Label: l.Label, ExpiresAt: l.ExpiresAt})
}

// CustomizeCV godoc
// @ID          customizeCV
// @Summary     Tailor the CV to a job description
// @Description Untrusted fields are stripped of prompt-injection patterns before
// @Description the model is called. Rate limited per client.
// @Tags        CV
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CustomizeCVRequest  true "Customization payload"
// @Success     200  {object}  handlers.CustomizeCVResponse
// @Header      200  {integer} X-RateLimit-Remaining "Requests left in the window"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Untrusted origin"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limit exceeded"
// @Failure     502  {object}  handlers.ErrorResponse "Generation failed"
// @Failure     503  {object}  handlers.ErrorResponse "Generator unavailable"
// @Router      /cv/customize [post]
func (h *Handlers) CustomizeCV(c *gin.Context) {
	var req CustomizeCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cv_markdown and job_description are required")
		return
	}

	res, err := h.customize.Customize(c.Request.Context(), services.CustomizeRequest{
		CVMarkdown:         req.CVMarkdown,
		JobDescription:     req.JobDescription,
		CustomInstructions: req.CustomInstructions,
		Language:           req.Language,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrGeneratorUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeGeneratorUnavailable, "AI customization is not available")
		return
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, ErrCodeGenerationFailed, "generation timed out")
		return
	default:
		fail(c, http.StatusBadGateway, ErrCodeGenerationFailed, "could not generate a customized CV")
		return
	}

	if res.Redactions > 0 {
		middleware.RecordRedactions(res.Redactions)
		middleware.LoggerFrom(c).Warn().
			Int("redactions", res.Redactions).
			Msg("prompt injection patterns removed")
	}
	ok(c, http.StatusOK, CustomizeCVResponse{Content: res.Content, Model: res.Model})
}

// ExportCV godoc
// @ID          exportCV
// @Summary     Export the CV as PDF
// @Description Renders HTML and appends allow-listed document attachments.
// @Tags        CV
// @Accept      json
// @Produce     application/pdf
// @Param       body  body  handlers.ExportCVRequest  true "Export payload"
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse "Bad request or invalid attachment"
// @Failure     403  {object}  handlers.ErrorResponse "Untrusted origin"
// @Failure     404  {object}  handlers.ErrorResponse "Attachment missing"
// @Failure     422  {object}  handlers.ErrorResponse "Attachment is not a readable PDF"
// @Failure     502  {object}  handlers.ErrorResponse "Renderer failed"
// @Failure     503  {object}  handlers.ErrorResponse "Renderer unavailable"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /cv/export [post]
func (h *Handlers) ExportCV(c *gin.Context) {
	var req ExportCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "html is required")
		return
	}

	pdf, err := h.export.Export(c.Request.Context(), req.HTML, req.Attachments)
	if err != nil {
		var bad *services.InvalidAttachmentError
		switch {
		case errors.As(err, &bad):
			middleware.RecordAttachmentRejection()
			middleware.LoggerFrom(c).Warn().Str("path", bad.Path).Msg("attachment rejected")
			fail(c, http.StatusBadRequest, ErrCodeInvalidAttachment, bad.Error())
		case errors.Is(err, services.ErrInvalidInput):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAttachmentMissing):
			fail(c, http.StatusNotFound, ErrCodeAttachmentMissing, "attachment not found")
		case errors.Is(err, render.ErrNotPDF):
			fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidPDF, err.Error())
		case errors.Is(err, services.ErrRendererUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeRendererUnavailable, "PDF export is not available")
		case errors.Is(err, render.ErrUpstream):
			fail(c, http.StatusBadGateway, ErrCodeRendererFailed, "PDF renderer failed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not export CV")
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="cv.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
