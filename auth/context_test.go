package auth

import (
	"context"
	"testing"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if id := IdentityFromContext(ctx); id != nil {
		t.Errorf("IdentityFromContext() = %v, want nil", id)
	}
	if s := SubjectFromContext(ctx); s != "" {
		t.Errorf("SubjectFromContext() = %q, want empty", s)
	}

	id := &Identity{Subject: "alice", Roles: []string{"admin"}}
	ctx = WithIdentity(ctx, id)

	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext() = %v, want %v", got, id)
	}
	if s := SubjectFromContext(ctx); s != "alice" {
		t.Errorf("SubjectFromContext() = %q, want alice", s)
	}
}

func TestIdentityContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), identityKey, "not an identity")
	if id := IdentityFromContext(ctx); id != nil {
		t.Errorf("IdentityFromContext() = %v, want nil", id)
	}
}
