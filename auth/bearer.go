package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jonwraymond/rbacgate/token"
)

// BearerConfig configures the bearer token authenticator.
type BearerConfig struct {
	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// Scheme is the authentication scheme before the token, matched
	// case-insensitively.
	// Default: "Bearer"
	Scheme string
}

// TokenResolver verifies a raw token and returns its decoded form.
// *token.Service implements it.
type TokenResolver interface {
	ResolveToken(raw string) (token.Token, error)
}

// Directory reports whether a subject is still known and which roles it
// holds.
type Directory interface {
	Lookup(subject string) (roles []string, ok bool)
}

// DirectoryFunc is an adapter to allow use of ordinary functions as a Directory.
type DirectoryFunc func(subject string) ([]string, bool)

// Lookup calls the function.
func (f DirectoryFunc) Lookup(subject string) ([]string, bool) {
	return f(subject)
}

// BearerAuthenticator authenticates requests carrying a token issued by the
// token service.
type BearerAuthenticator struct {
	config    BearerConfig
	resolver  TokenResolver
	directory Directory
}

// NewBearerAuthenticator creates a bearer authenticator. A nil directory
// accepts every subject the token names.
func NewBearerAuthenticator(config BearerConfig, resolver TokenResolver, directory Directory) *BearerAuthenticator {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	config.HeaderName = http.CanonicalHeaderKey(config.HeaderName)
	if config.Scheme == "" {
		config.Scheme = "Bearer"
	}
	return &BearerAuthenticator{
		config:    config,
		resolver:  resolver,
		directory: directory,
	}
}

// Name returns "bearer".
func (a *BearerAuthenticator) Name() string {
	return "bearer"
}

// Supports returns true if the request carries the configured scheme.
func (a *BearerAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	_, ok := a.extract(req)
	return ok
}

// Authenticate resolves the token and checks that its subject is known.
// Token failures are reported in the result as *token.AuthError.
func (a *BearerAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, ok := a.extract(req)
	if !ok || raw == "" {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	tok, err := a.resolver.ResolveToken(raw)
	if err != nil {
		return AuthFailure(err, a.Name()), nil
	}

	identity := &Identity{
		Subject:   tok.Subject,
		TokenID:   tok.ID,
		Method:    AuthMethodBearer,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
	}
	if a.directory != nil {
		roles, known := a.directory.Lookup(tok.Subject)
		if !known {
			return AuthFailure(ErrUnknownSubject, a.Name()), nil
		}
		identity.Roles = roles
	}

	return AuthSuccess(identity), nil
}

// extract returns the credentials following the scheme.
func (a *BearerAuthenticator) extract(req *AuthRequest) (string, bool) {
	header := strings.TrimSpace(req.GetHeader(a.config.HeaderName))
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, a.config.Scheme) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Ensure BearerAuthenticator implements Authenticator
var _ Authenticator = (*BearerAuthenticator)(nil)
