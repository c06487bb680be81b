package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/token"
)

func TestPolicyChecker(t *testing.T) {
	loaded, err := policy.Load("", "admin, admin_resource, read\n", "alice, admin\n")
	if err != nil {
		t.Fatal(err)
	}
	empty, err := policy.Load("", "", "alice, admin\n")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		store *policy.Store
		want  Status
	}{
		{"loaded", policy.StaticStore(loaded), StatusHealthy},
		{"no rules", policy.StaticStore(empty), StatusDegraded},
		{"nil store", nil, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := PolicyChecker(tt.store)
			if checker.Name() != "policy" {
				t.Errorf("Name() = %q", checker.Name())
			}
			r := checker.Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
		})
	}

	r := PolicyChecker(policy.StaticStore(loaded)).Check(context.Background())
	if r.Details["rules"] != 1 || r.Details["generation"] != uint64(1) {
		t.Errorf("Details = %v", r.Details)
	}

	r = PolicyChecker(nil).Check(context.Background())
	if !errors.Is(r.Error, ErrNoEngine) {
		t.Errorf("Error = %v, want ErrNoEngine", r.Error)
	}
}

func TestTokenChecker(t *testing.T) {
	svc, err := token.New(token.Config{Secret: []byte("health-secret"), TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	r := TokenChecker(svc).Check(context.Background())
	if r.Status != StatusHealthy {
		t.Errorf("Status = %v (%s: %v)", r.Status, r.Message, r.Error)
	}
	if r.Details["ttl"] != "1m0s" {
		t.Errorf("Details[ttl] = %v", r.Details["ttl"])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := TokenChecker(svc).Check(ctx); r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Errorf("cancelled check = %+v", r)
	}

	if r := TokenChecker(nil).Check(context.Background()); !errors.Is(r.Error, ErrCheckFailed) {
		t.Errorf("nil service check = %+v", r)
	}
}

func TestTokenChecker_ExpiredClock(t *testing.T) {
	// A clock that jumps past the TTL between issue and resolve fails the
	// round trip.
	base := time.Unix(1_700_000_000, 0)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls > 1 {
			return base.Add(time.Hour)
		}
		return base
	}
	svc, err := token.New(token.Config{Secret: []byte("health-secret"), TTL: time.Minute}, token.WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	r := TokenChecker(svc).Check(context.Background())
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, token.ErrExpired) {
		t.Errorf("Check() = %+v, want unhealthy wrapping ErrExpired", r)
	}
}
