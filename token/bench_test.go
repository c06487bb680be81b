package token

import "testing"

// BenchmarkService_Issue measures token signing.
func BenchmarkService_Issue(b *testing.B) {
	svc, err := New(Config{Secret: testSecret})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.Issue("user@example.com")
	}
}

// BenchmarkService_Resolve measures token verification.
func BenchmarkService_Resolve(b *testing.B) {
	svc, err := New(Config{Secret: testSecret})
	if err != nil {
		b.Fatal(err)
	}
	tok, err := svc.Issue("user@example.com")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.Resolve(tok.Value)
	}
}
