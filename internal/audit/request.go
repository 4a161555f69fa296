package audit

import (
	"net/http"
	"strings"
)

// ipHeaders are consulted in order; the first present one wins.
var ipHeaders = []string{"X-Forwarded-For", "Cf-Connecting-Ip", "X-Real-Ip"}

// ClientIP returns the client address claimed by proxy headers:
// X-Forwarded-For (first hop only), then CF-Connecting-IP, then X-Real-IP.
// It returns nil when none is set.
func ClientIP(h http.Header) *string {
	for _, name := range ipHeaders {
		v := h.Get(name)
		if v == "" {
			continue
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = v[:i]
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		return &v
	}
	return nil
}

// UserAgent returns the User-Agent header cut to MaxUserAgentLength
// characters, or nil when absent.
func UserAgent(h http.Header) *string {
	ua := h.Get("User-Agent")
	if ua == "" {
		return nil
	}
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			ua = ua[:i]
			break
		}
		n++
	}
	return &ua
}
