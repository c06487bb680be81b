package auth

import (
	"context"
	"fmt"
)

// Authorizer decides whether an authenticated identity may perform an
// action on a resource. A nil error means allowed; a denial is an
// *AuthzError. Any other error is an internal failure.
type Authorizer interface {
	Authorize(ctx context.Context, req *AuthzRequest) error

	// Name identifies the authorizer in logs and metrics.
	Name() string
}

// AuthzRequest is one (subject, action, resource) question.
type AuthzRequest struct {
	Subject *Identity

	// Resource is the protected object, such as "admin_resource".
	Resource string

	// Action is the requested operation, such as "read".
	Action string
}

// AuthzError is a denied request. It matches ErrForbidden.
type AuthzError struct {
	Subject  string
	Resource string
	Action   string

	// Reason is the policy's explanation, for example policy.ReasonNoRole.
	Reason string
}

func (e *AuthzError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("auth: %s on %q denied: %s", e.Action, e.Resource, e.Reason)
	}
	return fmt.Sprintf("auth: %q may not %s %q: %s", e.Subject, e.Action, e.Resource, e.Reason)
}

// Is reports whether target is ErrForbidden.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}
