package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/rbacgate/policy"
)

func newTestPolicy(t *testing.T) *policy.Store {
	t.Helper()
	e, err := policy.New(nil,
		[]policy.Rule{
			{Role: "admin", Resource: "admin_resource", Action: "read"},
			{Role: "admin", Resource: "user_resource", Action: "read"},
			{Role: "user", Resource: "user_resource", Action: "read"},
		},
		policy.Grouping{"alice": {"admin"}, "bob": {"user"}},
	)
	if err != nil {
		t.Fatalf("policy.New() error = %v", err)
	}
	return policy.StaticStore(e)
}

func TestPolicyAuthorizer(t *testing.T) {
	a := NewPolicyAuthorizer(newTestPolicy(t))
	if a.Name() != "policy" {
		t.Errorf("Name() = %q, want policy", a.Name())
	}

	tests := []struct {
		name       string
		subject    *Identity
		action     string
		resource   string
		wantErr    bool
		wantReason string
	}{
		{name: "admin reads admin", subject: &Identity{Subject: "alice"}, action: "read", resource: "admin_resource"},
		{name: "admin reads user", subject: &Identity{Subject: "alice"}, action: "read", resource: "user_resource"},
		{name: "user reads user", subject: &Identity{Subject: "bob"}, action: "read", resource: "user_resource"},
		{
			name: "user reads admin", subject: &Identity{Subject: "bob"}, action: "read", resource: "admin_resource",
			wantErr: true, wantReason: policy.ReasonNoMatchRule,
		},
		{
			name: "unknown subject", subject: &Identity{Subject: "carol"}, action: "read", resource: "user_resource",
			wantErr: true, wantReason: policy.ReasonNoRole,
		},
		{
			name: "stale roles on identity are ignored", subject: &Identity{Subject: "bob", Roles: []string{"admin"}},
			action: "read", resource: "admin_resource", wantErr: true, wantReason: policy.ReasonNoMatchRule,
		},
		{name: "nil identity", subject: nil, action: "read", resource: "user_resource", wantErr: true, wantReason: "no identity provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(context.Background(), &AuthzRequest{
				Subject:  tt.subject,
				Resource: tt.resource,
				Action:   tt.action,
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authorize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var ae *AuthzError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not *AuthzError", err)
			}
			if ae.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", ae.Reason, tt.wantReason)
			}
			if ae.Action != tt.action || ae.Resource != tt.resource {
				t.Errorf("AuthzError = %+v", ae)
			}
			if !errors.Is(err, ErrForbidden) {
				t.Error("error should match ErrForbidden")
			}
		})
	}
}

func TestPolicyAuthorizer_DecisionHook(t *testing.T) {
	var decisions []policy.Decision
	a := NewPolicyAuthorizer(newTestPolicy(t), WithDecisionHook(func(_ context.Context, d policy.Decision) {
		decisions = append(decisions, d)
	}))

	_ = a.Authorize(context.Background(), &AuthzRequest{Subject: &Identity{Subject: "alice"}, Resource: "admin_resource", Action: "read"})
	_ = a.Authorize(context.Background(), &AuthzRequest{Subject: &Identity{Subject: "bob"}, Resource: "admin_resource", Action: "read"})
	_ = a.Authorize(context.Background(), &AuthzRequest{Resource: "admin_resource", Action: "read"})

	if len(decisions) != 2 {
		t.Fatalf("hook called %d times, want 2", len(decisions))
	}
	if !decisions[0].Allowed || decisions[0].Role != "admin" {
		t.Errorf("first decision = %+v", decisions[0])
	}
	if decisions[1].Allowed {
		t.Errorf("second decision = %+v, want deny", decisions[1])
	}
}

func TestPolicyAuthorizer_FollowsReload(t *testing.T) {
	store := newTestPolicy(t)
	a := NewPolicyAuthorizer(store)
	req := &AuthzRequest{Subject: &Identity{Subject: "bob"}, Resource: "admin_resource", Action: "read"}

	if err := a.Authorize(context.Background(), req); err == nil {
		t.Fatal("bob should be denied before swap")
	}

	next, err := policy.New(nil,
		[]policy.Rule{{Role: "user", Resource: "admin_resource", Action: "read"}},
		policy.Grouping{"bob": {"user"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	store.Swap(next)

	if err := a.Authorize(context.Background(), req); err != nil {
		t.Errorf("bob should be allowed after swap: %v", err)
	}
}
