package token

import (
	"errors"
	"fmt"
)

// Sentinel errors for token issuance and resolution.
var (
	// ErrUnauthenticated is matched by every resolution failure.
	ErrUnauthenticated = errors.New("token: unauthenticated")

	// Resolution failure kinds
	ErrMalformed        = errors.New("token: malformed")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")
	ErrMissingSubject   = errors.New("token: missing subject")

	// Configuration and issuance errors
	ErrMissingSecret = errors.New("token: signing secret is not configured")
	ErrInvalidTTL    = errors.New("token: ttl must be greater than zero")
	ErrEmptySubject  = errors.New("token: subject is required")
)

// AuthError describes why a token could not be resolved to a subject.
type AuthError struct {
	// Kind is one of ErrMalformed, ErrInvalidSignature, ErrExpired or
	// ErrMissingSubject.
	Kind error

	// Cause is the underlying parser error, if any.
	Cause error
}

// Error returns the error message.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *AuthError) Is(target error) bool {
	return target == e.Kind || target == ErrUnauthenticated
}

// KindName returns a short label for the failure kind of err, suitable for
// metric attributes and log fields. It returns "unknown" for errors that are
// not resolution failures.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrMissingSubject):
		return "missing_subject"
	default:
		return "unknown"
	}
}

func authError(kind, cause error) *AuthError {
	return &AuthError{Kind: kind, Cause: cause}
}
