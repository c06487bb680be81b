package auth

import (
	"context"

	"github.com/jonwraymond/rbacgate/policy"
)

// Decider evaluates a request against a policy. *policy.Store and
// *policy.Engine implement it.
type Decider interface {
	Decide(subject, action, resource string) policy.Decision
}

// PolicyAuthorizer authorizes requests with a policy Decider.
type PolicyAuthorizer struct {
	decider    Decider
	onDecision func(context.Context, policy.Decision)
}

// PolicyOption configures a PolicyAuthorizer.
type PolicyOption func(*PolicyAuthorizer)

// WithDecisionHook calls fn with every decision, allowed or not.
func WithDecisionHook(fn func(context.Context, policy.Decision)) PolicyOption {
	return func(a *PolicyAuthorizer) {
		a.onDecision = fn
	}
}

// NewPolicyAuthorizer creates a policy authorizer.
func NewPolicyAuthorizer(decider Decider, opts ...PolicyOption) *PolicyAuthorizer {
	a := &PolicyAuthorizer{decider: decider}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns "policy".
func (a *PolicyAuthorizer) Name() string {
	return "policy"
}

// Authorize checks the request against the decider. The subject is looked up
// in the policy on every call; roles cached on the Identity are not trusted.
func (a *PolicyAuthorizer) Authorize(ctx context.Context, req *AuthzRequest) error {
	if req.Subject == nil || req.Subject.Subject == "" {
		return &AuthzError{
			Resource: req.Resource,
			Action:   req.Action,
			Reason:   "no identity provided",
		}
	}

	d := a.decider.Decide(req.Subject.Subject, req.Action, req.Resource)
	if a.onDecision != nil {
		a.onDecision(ctx, d)
	}
	if d.Allowed {
		return nil
	}

	return &AuthzError{
		Subject:  req.Subject.Subject,
		Resource: req.Resource,
		Action:   req.Action,
		Reason:   d.Reason,
	}
}

// Ensure PolicyAuthorizer implements Authorizer
var _ Authorizer = (*PolicyAuthorizer)(nil)
