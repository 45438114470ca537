package perf

import (
	"testing"
	"time"

	"github.com/campusgive/campusgive/internal/security/password"
	"github.com/campusgive/campusgive/internal/security/token"
)

func BenchmarkTokenVerify(b *testing.B) {
	manager, err := token.NewManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if err != nil {
		b.Fatal(err)
	}
	raw, err := manager.Issue("5f1c7a5e-0000-4000-8000-000000000001")
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := manager.Verify(raw); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPasswordVerifyDefaultCost(b *testing.B) {
	hasher, err := password.NewHasher(password.DefaultCost)
	if err != nil {
		b.Fatal(err)
	}
	digest, err := hasher.Hash("Secret1!")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !hasher.Verify("Secret1!", digest) {
			b.Fatal("verify failed")
		}
	}
}
