package service

import (
	"testing"
	"time"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/repository/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	metrics *metrics.InMemoryRecorder
	issuer  *auth.TokenIssuer
	auth    *AuthService
	caught  *CaughtService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	f := &fixture{
		store:   memory.New(),
		metrics: metrics.NewInMemory(),
		issuer:  issuer,
	}
	f.auth = NewAuthService(f.store, hasher, issuer, f.metrics)
	f.auth.now = func() time.Time { return fixedNow }
	f.caught = NewCaughtService(f.store, f.metrics)
	return f
}
