package auth

import (
	"context"
	"testing"
	"time"
)

// BenchmarkBearerAuthenticator_Authenticate measures token resolution plus
// the directory lookup.
func BenchmarkBearerAuthenticator_Authenticate(b *testing.B) {
	now := time.Now()
	tokens := newTestTokens(b, &now)
	a := NewBearerAuthenticator(BearerConfig{}, tokens, testDirectory())
	tok, err := tokens.Issue("alice")
	if err != nil {
		b.Fatal(err)
	}
	req := bearerRequest("Bearer " + tok.Value)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Authenticate(ctx, req)
	}
}

// BenchmarkBearerAuthenticator_Supports measures scheme detection.
func BenchmarkBearerAuthenticator_Supports(b *testing.B) {
	now := time.Now()
	a := NewBearerAuthenticator(BearerConfig{}, newTestTokens(b, &now), nil)
	req := bearerRequest("Bearer abc.def.ghi")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.Supports(ctx, req)
	}
}
