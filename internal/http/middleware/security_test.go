package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWith(t *testing.T, pre gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(mw...)
	r.GET("/api/settings", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"email": "me@example.org"}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := serveWith(t, nil, SecurityHeaders(SecurityOptions{}))
	h := w.Header()

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "strict-origin-when-cross-origin" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Content-Security-Policy", "Cross-Origin-Resource-Policy", "Strict-Transport-Security", "Vary", "Cache-Control"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s=%q", k, h.Get(k))
		}
	}
	if h.Get("Access-Control-Expose-Headers") != "" {
		t.Fatalf("expose header set without a request id")
	}
}

func TestSecurityHeaders_PolicyAndVary(t *testing.T) {
	pre := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-1")
		c.Header("Vary", "Accept-Encoding")
		c.Next()
	}
	w := serveWith(t, pre, SecurityHeaders(SecurityOptions{EnablePolicy: true, VaryOrigin: true}))
	h := w.Header()

	if h.Get("Content-Security-Policy") != "default-src 'none'; frame-ancestors 'none'" ||
		h.Get("Cross-Origin-Resource-Policy") != "same-site" ||
		h.Get("X-Permitted-Cross-Domain-Policies") != "none" ||
		h.Get("Permissions-Policy") == "" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if got := h.Get("Vary"); got != "Accept-Encoding, Origin" {
		t.Fatalf("Vary=%q", got)
	}
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
		t.Fatalf("expose=%q", got)
	}
}

func TestSecurityHeaders_ExposeHeaderNotDuplicated(t *testing.T) {
	pre := func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-2")
		c.Header("Access-Control-Expose-Headers", "Retry-After, x-request-id")
		c.Next()
	}
	w := serveWith(t, pre, SecurityHeaders(SecurityOptions{}))
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Retry-After, x-request-id" {
		t.Fatalf("expose header changed: %q", got)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	plain := httptest.NewRecorder()
	r.ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/health", nil))
	if plain.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS on plain HTTP")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.TLS = &tls.ConnectionState{}
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS=%q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	r.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("HSTS missing behind TLS-terminating proxy")
	}
}

func TestNoStore(t *testing.T) {
	w := serveWith(t, nil, NoStore())
	h := w.Header()
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %#v", h)
	}
}
