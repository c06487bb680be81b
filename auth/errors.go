package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication and authorization.
var (
	// Authentication errors
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrUnknownSubject     = errors.New("auth: unknown subject")

	// Authorization errors
	ErrForbidden = errors.New("auth: access denied")
)

// AuthnError represents an authentication failure reported by an
// Authenticator.
type AuthnError struct {
	// Method is the authenticator that rejected the request.
	Method string

	// Cause is the failure, e.g. ErrMissingCredentials or a *token.AuthError.
	Cause error
}

// Error returns the error message.
func (e *AuthnError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("authentication failed: %v", e.Cause)
	}
	return fmt.Sprintf("authentication failed: method=%q: %v", e.Method, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *AuthnError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *AuthnError) Is(target error) bool {
	return target == ErrUnauthenticated
}
