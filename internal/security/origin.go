// Package security implements the stateless parts of the request-trust layer:
// cross-origin request validation for state-changing calls, prompt-injection
// redaction for text forwarded to an LLM, and the allow-list for PDF
// attachment paths.
//
// Everything in this package is a pure function of its inputs and of
// configuration captured at construction time, so values are safe for
// concurrent use without locking.
package security

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tbourn/portfolio-backend/internal/config"
)

// CSRFRejectionMessage is the fixed, machine-readable body text for a failed
// origin check.
const CSRFRejectionMessage = "CSRF validation failed. Request origin not allowed."

// WildcardOrigin trusts every host under Suffix (and Suffix itself) when the
// request uses exactly Scheme.
type WildcardOrigin struct {
	Scheme string
	Suffix string
}

func (w WildcardOrigin) matches(scheme, hostname string) bool {
	if scheme != w.Scheme || w.Suffix == "" {
		return false
	}
	return hostname == w.Suffix || strings.HasSuffix(hostname, "."+w.Suffix)
}

// OriginPolicy is the immutable allow-list of trusted origins.
type OriginPolicy struct {
	exact     map[string]struct{}
	wildcards []WildcardOrigin
}

// NewOriginPolicy builds a policy from exact origins ("scheme://host[:port]")
// and suffix-wildcard rules. Exact origins are compared after lower-casing.
func NewOriginPolicy(exact []string, wildcards ...WildcardOrigin) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]struct{}, len(exact))}
	for _, o := range exact {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o != "" {
			p.exact[o] = struct{}{}
		}
	}
	for _, w := range wildcards {
		w.Scheme = strings.ToLower(w.Scheme)
		w.Suffix = strings.TrimPrefix(strings.ToLower(w.Suffix), ".")
		if w.Scheme != "" && w.Suffix != "" {
			p.wildcards = append(p.wildcards, w)
		}
	}
	return p
}

// PolicyFromConfig derives the trusted origins from startup configuration:
// production hostnames over https, localhost dev ports over http, the
// preview-deployment suffix over https, and any extra exact origins.
func PolicyFromConfig(cfg config.TrustConfig) *OriginPolicy {
	exact := make([]string, 0, len(cfg.TrustedHostnames)+len(cfg.TrustedDevPorts)+len(cfg.ExtraOrigins))
	for _, h := range cfg.TrustedHostnames {
		exact = append(exact, "https://"+h)
	}
	for _, p := range cfg.TrustedDevPorts {
		exact = append(exact, "http://localhost:"+strconv.Itoa(p))
	}
	exact = append(exact, cfg.ExtraOrigins...)

	var wild []WildcardOrigin
	if cfg.PreviewHostSuffix != "" {
		wild = append(wild, WildcardOrigin{Scheme: "https", Suffix: cfg.PreviewHostSuffix})
	}
	return NewOriginPolicy(exact, wild...)
}

// IsTrusted reports whether a raw Origin header value is on the allow-list.
// Unparsable values and values without scheme or host are not trusted.
func (p *OriginPolicy) IsTrusted(origin string) bool {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return false
	}
	return p.allows(u)
}

func (p *OriginPolicy) allows(u *url.URL) bool {
	if u.Scheme == "" || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if _, ok := p.exact[scheme+"://"+strings.ToLower(u.Host)]; ok {
		return true
	}
	hostname := strings.ToLower(u.Hostname())
	for _, w := range p.wildcards {
		if w.matches(scheme, hostname) {
			return true
		}
	}
	return false
}

// ValidateOrigin decides whether a request's claimed origin is trusted.
//
// Origin wins when present; Referer is consulted only when Origin is absent.
// A request carrying neither header is accepted. The method and request URL
// arguments do not influence the outcome.
func (p *OriginPolicy) ValidateOrigin(_, originHeader, refererHeader, _ string) bool {
	if originHeader != "" {
		return p.IsTrusted(originHeader)
	}
	if refererHeader != "" {
		u, err := url.Parse(strings.TrimSpace(refererHeader))
		if err != nil {
			return false
		}
		return p.allows(u)
	}
	return true
}

// Decision is the outcome of a CSRF gate check.
type Decision struct {
	Allowed bool
	Status  int    // HTTP status to answer with when !Allowed
	Message string // body text when !Allowed
}

// IsSafeMethod reports whether method never mutates state (GET, HEAD, OPTIONS).
// Comparison is case-insensitive.
func IsSafeMethod(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRFGate lets safe methods through without inspecting headers and runs
// ValidateOrigin for everything else.
func (p *OriginPolicy) CSRFGate(method, originHeader, refererHeader, requestURL string) Decision {
	if IsSafeMethod(method) {
		return Decision{Allowed: true}
	}
	if p.ValidateOrigin(method, originHeader, refererHeader, requestURL) {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Status:  http.StatusForbidden,
		Message: CSRFRejectionMessage,
	}
}
