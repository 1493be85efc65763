// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE caught_pokemon, pokemon, users"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with a unique email. The hash is not a real
// Argon2 hash; stores never inspect it.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := ulid.Make().String()
	return &model.User{
		ID:           id,
		Email:        strings.ToLower(id) + "@test.local",
		PasswordHash: "hash-" + id,
		CreatedAt:    Now(),
	}
}

// NewTestCaught creates an ownership record for user and pokemon.
func NewTestCaught(t testing.TB, userID, pokemonID string, createdAt time.Time) *model.CaughtPokemon {
	t.Helper()
	return &model.CaughtPokemon{
		ID:        ulid.Make().String(),
		UserID:    userID,
		PokemonID: pokemonID,
		CreatedAt: createdAt,
	}
}

// UniqueName generates a unique lowercase pokemon name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// Now returns the current time at millisecond precision, which every
// storage backend round-trips exactly.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
