package auth

import (
	"context"
	"net/http"
)

// Authenticator turns request credentials into an Identity.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Authenticate returns ctx.Err() when ctx is already done.
//   - Errors: a rejected credential is a result with Authenticated=false and
//     a nil error. A non-nil error means the authenticator itself failed.
type Authenticator interface {
	// Name identifies the authenticator in results, logs and metrics.
	Name() string

	// Supports reports whether req carries credentials this authenticator
	// understands. It does not validate them.
	Supports(ctx context.Context, req *AuthRequest) bool

	// Authenticate validates the credentials in req.
	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest is the transport-neutral view of an incoming request.
type AuthRequest struct {
	// Header holds the request headers. Keys are looked up in canonical form.
	Header http.Header

	// Path is the request path, used for logging only.
	Path string
}

// GetHeader returns the first value of the named header, or "".
func (r *AuthRequest) GetHeader(name string) string {
	return r.Header.Get(name)
}

// AuthResult reports the outcome of one authentication attempt.
type AuthResult struct {
	Authenticated bool

	// Identity is set when Authenticated is true.
	Identity *Identity

	// Error explains a rejection. It is nil when Authenticated is true.
	Error error

	// Method names the authenticator that produced the result.
	Method string
}

// AuthSuccess wraps identity in an accepted result.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{
		Authenticated: true,
		Identity:      identity,
		Method:        string(identity.Method),
	}
}

// AuthFailure wraps err in a rejected result attributed to method.
func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{Error: err, Method: method}
}
