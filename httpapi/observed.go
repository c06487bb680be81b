package httpapi

import (
	"context"
	"errors"

	"github.com/jonwraymond/rbacgate/auth"
	"github.com/jonwraymond/rbacgate/observe"
	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/token"
)

// observedAuthenticator runs every authentication as a token.resolve
// operation and counts failures by kind.
type observedAuthenticator struct {
	auth.Authenticator
	mw *observe.Middleware
}

func (a *observedAuthenticator) Authenticate(ctx context.Context, req *auth.AuthRequest) (*auth.AuthResult, error) {
	var result *auth.AuthResult
	err := a.mw.Do(ctx, observe.OpTokenResolve, func(ctx context.Context) error {
		var err error
		result, err = a.Authenticator.Authenticate(ctx, req)
		if err != nil {
			return err
		}
		if !result.Authenticated {
			return result.Error
		}
		return nil
	})
	if result != nil && !result.Authenticated {
		a.mw.Metrics().RecordTokenFailure(ctx, failureKind(result.Error))
		return result, nil
	}
	return result, err
}

func failureKind(err error) string {
	if kind := token.KindName(err); kind != "unknown" {
		return kind
	}
	switch {
	case errors.Is(err, auth.ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, auth.ErrMissingCredentials):
		return "missing"
	default:
		return "unknown"
	}
}

// observedAuthorizer runs every decision as a policy.authorize operation.
type observedAuthorizer struct {
	auth.Authorizer
	mw *observe.Middleware
}

func (a *observedAuthorizer) Authorize(ctx context.Context, req *auth.AuthzRequest) error {
	return a.mw.Do(ctx, observe.OpPolicyAuthorize, func(ctx context.Context) error {
		return a.Authorizer.Authorize(ctx, req)
	})
}

// decisionRecorder feeds every policy decision into metrics and the debug log.
func decisionRecorder(mw *observe.Middleware, logger observe.Logger) func(context.Context, policy.Decision) {
	return func(ctx context.Context, d policy.Decision) {
		mw.Metrics().RecordDecision(ctx, d.Allowed, d.Reason)
		logger.Debug(ctx, "policy decision",
			observe.Field{Key: "subject", Value: d.Subject},
			observe.Field{Key: "action", Value: d.Action},
			observe.Field{Key: "resource", Value: d.Resource},
			observe.Field{Key: "allowed", Value: d.Allowed},
			observe.Field{Key: "role", Value: d.Role},
			observe.Field{Key: "reason", Value: d.Reason},
		)
	}
}
