// Package auth verifies the OpenID Connect ID tokens that admin requests
// carry as bearer tokens, and decides whether the caller is an admin.
//
// Sign-in itself happens at the identity provider; this package only checks
// signature, issuer, audience and expiry, then reads the identity claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/tbourn/portfolio-backend/internal/config"
)

var (
	// ErrUnauthenticated means no usable bearer token was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken means the token failed verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the verified caller.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// OIDCVerifier verifies ID tokens issued for one client.
type OIDCVerifier struct {
	v *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider at cfg.IssuerURL and returns a
// verifier for cfg.ClientID. Discovery performs a network request.
func NewOIDCVerifier(ctx context.Context, cfg config.OIDCConfig) (*OIDCVerifier, error) {
	if !cfg.Enabled() {
		return nil, errors.New("auth: OIDC issuer URL and client ID are required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("auth: discover %s: %w", cfg.IssuerURL, err)
	}
	return &OIDCVerifier{v: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})}, nil
}

// NewStaticVerifier returns a verifier over a fixed key set, skipping
// discovery. now may be nil.
func NewStaticVerifier(issuer, clientID string, keys oidc.KeySet, now func() time.Time) *OIDCVerifier {
	return &OIDCVerifier{v: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID, Now: now})}
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// Verify checks rawToken and returns the caller's identity. A token without
// an email_verified claim is treated as unverified.
func (o *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrUnauthenticated
	}
	tok, err := o.v.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var c idClaims
	if err := tok.Claims(&c); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}
	return &Identity{
		Subject:       tok.Subject,
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		EmailVerified: c.EmailVerified != nil && *c.EmailVerified,
	}, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// AdminSet is the set of admin email addresses.
type AdminSet map[string]struct{}

// NewAdminSet builds an AdminSet; entries are compared case-insensitively.
func NewAdminSet(emails ...string) AdminSet {
	s := make(AdminSet, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s[e] = struct{}{}
		}
	}
	return s
}

// IsAdmin reports whether id is a verified admin identity.
func (s AdminSet) IsAdmin(id *Identity) bool {
	if id == nil || !id.EmailVerified || id.Email == "" {
		return false
	}
	_, ok := s[strings.ToLower(id.Email)]
	return ok
}
