// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, CSRF origin checks, security headers, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/portfolio-backend/internal/audit"
	"github.com/tbourn/portfolio-backend/internal/auth"
	"github.com/tbourn/portfolio-backend/internal/config"
	"github.com/tbourn/portfolio-backend/internal/domain"
	"github.com/tbourn/portfolio-backend/internal/http/docs"
	"github.com/tbourn/portfolio-backend/internal/http/handlers"
	"github.com/tbourn/portfolio-backend/internal/http/middleware"
	"github.com/tbourn/portfolio-backend/internal/llm"
	"github.com/tbourn/portfolio-backend/internal/ratelimit"
	"github.com/tbourn/portfolio-backend/internal/repo"
	"github.com/tbourn/portfolio-backend/internal/security"
	"github.com/tbourn/portfolio-backend/internal/services"
)

// Repo shims adapt the repository free functions to the interfaces expected
// by the services. This keeps services decoupled from the concrete repo
// package while reusing existing functions.

type settingsRepoShim struct{}

// ListSiteSettings proxies repo.ListSiteSettings.
func (settingsRepoShim) ListSiteSettings(ctx context.Context, db *gorm.DB) ([]domain.SiteSetting, error) {
	return repo.ListSiteSettings(ctx, db)
}

// UpsertSiteSetting proxies repo.UpsertSiteSetting.
func (settingsRepoShim) UpsertSiteSetting(ctx context.Context, db *gorm.DB, key, value, updatedBy string) (*domain.SiteSetting, error) {
	return repo.UpsertSiteSetting(ctx, db, key, value, updatedBy)
}

type shareLinkRepoShim struct{}

// CreateShareLink proxies repo.CreateShareLink.
func (shareLinkRepoShim) CreateShareLink(ctx context.Context, db *gorm.DB, token, label, createdBy string, expiresAt *time.Time) (*domain.ShareLink, error) {
	return repo.CreateShareLink(ctx, db, token, label, createdBy, expiresAt)
}

// CountShareLinks proxies repo.CountShareLinks (pagination support).
func (shareLinkRepoShim) CountShareLinks(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountShareLinks(ctx, db)
}

// ListShareLinksPage proxies repo.ListShareLinksPage (pagination support).
func (shareLinkRepoShim) ListShareLinksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ShareLink, error) {
	return repo.ListShareLinksPage(ctx, db, offset, limit)
}

// DeleteShareLink proxies repo.DeleteShareLink.
func (shareLinkRepoShim) DeleteShareLink(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteShareLink(ctx, db, id)
}

// GetShareLinkByToken proxies repo.GetShareLinkByToken.
func (shareLinkRepoShim) GetShareLinkByToken(ctx context.Context, db *gorm.DB, token string) (*domain.ShareLink, error) {
	return repo.GetShareLinkByToken(ctx, db, token)
}

type auditRepoShim struct{}

// ListAuditLogs proxies repo.ListAuditLogs.
func (auditRepoShim) ListAuditLogs(ctx context.Context, db *gorm.DB, rt domain.ResourceType, action domain.AuditAction, limit int) ([]domain.AuditLog, error) {
	return repo.ListAuditLogs(ctx, db, rt, action, limit)
}

// Deps carries the runtime dependencies built by the entrypoint.
type Deps struct {
	DB *gorm.DB
	// Limiter backs both quotas. Required.
	Limiter *ratelimit.Limiter
	// Verifier authenticates admins. Admin routes are not mounted when nil.
	Verifier auth.Verifier
	// Generator and Renderer may be nil; the matching endpoints then
	// answer 503.
	Generator llm.Generator
	Renderer  services.Renderer
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Security headers, gzip
//  8. CSRF origin check (before CORS so rejections carry a JSON body)
//  9. CORS
//
// Rate limits are applied per group: the API quota on every API route and
// the AI quota on top of it for generation. Admin routes authenticate first
// so their quota is counted per user.
func RegisterRoutes(r *gin.Engine, cfg config.Config, d Deps) {
	r.HandleMethodNotAllowed = true
	// Client addresses (rate-limit keys) honor X-Forwarded-For only from
	// these peers. Entries are validated by config.Load.
	if err := r.SetTrustedProxies(cfg.Trust.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("invalid trusted proxies; trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	policy := security.PolicyFromConfig(cfg.Trust)
	base := cfg.APIBasePath

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (4 MiB)
	r.Use(limitBody(4 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		VaryOrigin:   true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics",
		joinPath(base, "/cv/export"),
	})))

	// 8) CSRF: unsafe methods must come from a trusted origin
	r.Use(middleware.CSRF(policy))

	// 9) CORS: echo trusted origins only
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  policy.IsTrusted,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = base
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	shareLinks := services.NewShareLinkService(d.DB, shareLinkRepoShim{})
	settings := services.NewSettingsService(d.DB, settingsRepoShim{})
	h := handlers.New(handlers.Services{
		Settings:  settings,
		ShareLink: shareLinks,
		Audit:     &services.AuditService{DB: d.DB, Repo: auditRepoShim{}},
		Customize: &services.CustomizeService{
			Generator:            d.Generator,
			Sanitizer:            security.NewSanitizer(),
			JobDescriptionMaxLen: cfg.Trust.JobDescriptionMaxLength,
			InstructionsMaxLen:   cfg.Trust.InstructionsMaxLength,
		},
		Export: &services.ExportService{
			Dir:       cfg.Trust.AttachmentsDir,
			AllowList: security.NewAttachmentAllowList(),
			Renderer:  d.Renderer,
		},
		AuditLog: audit.New(repo.AuditAppender{DB: d.DB}, nil),
	})

	apiLimit := middleware.RateLimit(d.Limiter, middleware.RateLimitOptions{
		Quota: quota("api", cfg.Trust.APIQuota),
	})
	aiLimit := middleware.RateLimit(d.Limiter, middleware.RateLimitOptions{
		Quota:   quota("ai", cfg.Trust.AIQuota),
		Message: middleware.AILimitMessage,
	})

	// Public API
	api := groupWithPrefix(r, base)
	pub := api.Group("", apiLimit)
	{
		pub.GET("/settings", h.PublicSettings)
		pub.GET("/share/:token", h.ResolveShareLink)
		pub.POST("/cv/customize", aiLimit, h.CustomizeCV)
		pub.POST("/cv/export", h.ExportCV)
	}

	// Admin API
	if d.Verifier == nil {
		return
	}
	admin := api.Group("/admin",
		middleware.RequireAdmin(d.Verifier, auth.NewAdminSet(cfg.Trust.AdminEmails...)),
		middleware.NoStore(),
		apiLimit,
	)
	{
		admin.GET("/settings", h.ListSettings)
		admin.PUT("/settings/:key", h.PutSetting)

		admin.GET("/share-links", h.ListShareLinks)
		admin.POST("/share-links", h.CreateShareLink)
		admin.DELETE("/share-links/:id", h.DeleteShareLink)

		admin.GET("/audit-logs", h.ListAuditLogs)
	}
}

func quota(name string, q config.Quota) ratelimit.Config {
	return ratelimit.Config{Name: name, MaxRequests: q.MaxRequests, Window: q.Window}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
