// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the response-header middleware. SecurityHeaders runs once
// on the engine; NoStore is attached to the admin group so session-bound
// responses are never cached by the browser or a shared proxy.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge time.Duration // defaults to 180 days
	// EnablePolicy adds Permissions-Policy, a deny-all Content-Security-Policy
	// and a same-site resource policy. The API never serves HTML.
	EnablePolicy bool
	// VaryOrigin marks responses as Origin-dependent. Set it whenever CORS or
	// the CSRF gate decide per Origin so caches do not mix answers.
	VaryOrigin bool
}

type header struct{ key, value string }

// SecurityHeaders returns a middleware that sets the headers described by
// opt on every response. X-Content-Type-Options, X-Frame-Options and
// Referrer-Policy are always set, and X-Request-ID is exposed to browsers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := []header{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
	}
	if opt.EnablePolicy {
		static = append(static,
			header{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			header{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
			header{"Cross-Origin-Resource-Policy", "same-site"},
			header{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}

	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv.key, kv.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if opt.VaryOrigin {
			appendToken(h, "Vary", "Origin")
		}
		if h.Get(requestIDHeader) != "" {
			appendToken(h, "Access-Control-Expose-Headers", requestIDHeader)
		}
		c.Next()
	}
}

// NoStore disables caching for every response of the group it is attached to.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		c.Next()
	}
}

// appendToken adds tok to the comma-separated header key unless present.
func appendToken(h http.Header, key, tok string) {
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, tok)
		return
	}
	for _, part := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(part), tok) {
			return
		}
	}
	h.Set(key, cur+", "+tok)
}

// isHTTPS reports whether the request used HTTPS directly or via a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
