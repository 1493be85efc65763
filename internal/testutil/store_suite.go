package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pokecatch/pokecatch/internal/model"
	"github.com/pokecatch/pokecatch/internal/repository"
)

// Store is the method set every storage backend provides.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetOrCreatePokemon(ctx context.Context, name string) (*model.Pokemon, error)
	CountPokemonByName(ctx context.Context, name string) (int, error)
	CreateCaughtPokemon(ctx context.Context, c *model.CaughtPokemon) error
	DeleteCaughtPokemon(ctx context.Context, id, userID string) (int64, error)
	ListCaughtPokemon(ctx context.Context, userID string) ([]*model.CaughtPokemon, error)
	Ping(ctx context.Context) error
}

// RunStoreSuite runs the shared behavioural tests against a backend.
// newStore is called once per subtest.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("UserRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := NewTestUser(t)

		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		got, err := s.GetUserByEmail(ctx, u.Email)
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if got.ID != u.ID || got.PasswordHash != u.PasswordHash {
			t.Errorf("got %+v, want %+v", got, u)
		}
		if !got.CreatedAt.Equal(u.CreatedAt) {
			t.Errorf("CreatedAt = %s, want %s", got.CreatedAt, u.CreatedAt)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := NewTestUser(t)
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		dup := NewTestUser(t)
		dup.Email = u.Email
		if err := s.CreateUser(ctx, dup); !errors.Is(err, repository.ErrEmailExists) {
			t.Errorf("expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetUserByEmail(context.Background(), "nobody@test.local"); !errors.Is(err, repository.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("GetOrCreatePokemonIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		name := UniqueName("pikachu")

		first, err := s.GetOrCreatePokemon(ctx, name)
		if err != nil {
			t.Fatalf("GetOrCreatePokemon: %v", err)
		}
		second, err := s.GetOrCreatePokemon(ctx, name)
		if err != nil {
			t.Fatalf("GetOrCreatePokemon: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("ids differ: %s vs %s", first.ID, second.ID)
		}
		n, err := s.CountPokemonByName(ctx, name)
		if err != nil {
			t.Fatalf("CountPokemonByName: %v", err)
		}
		if n != 1 {
			t.Errorf("count = %d, want 1", n)
		}
	})

	t.Run("GetOrCreatePokemonConcurrent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		name := UniqueName("eevee")

		const workers = 8
		ids := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := s.GetOrCreatePokemon(ctx, name)
				errs[i] = err
				if p != nil {
					ids[i] = p.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			if errs[i] != nil {
				t.Fatalf("worker %d: %v", i, errs[i])
			}
			if ids[i] != ids[0] {
				t.Errorf("worker %d got id %s, want %s", i, ids[i], ids[0])
			}
		}
		if n, _ := s.CountPokemonByName(ctx, name); n != 1 {
			t.Errorf("count = %d, want 1", n)
		}
	})

	t.Run("CaughtOwnership", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		alice, bob := NewTestUser(t), NewTestUser(t)
		for _, u := range []*model.User{alice, bob} {
			if err := s.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
		}
		p, err := s.GetOrCreatePokemon(ctx, UniqueName("charmander"))
		if err != nil {
			t.Fatalf("GetOrCreatePokemon: %v", err)
		}

		base := Now()
		a1 := NewTestCaught(t, alice.ID, p.ID, base)
		a2 := NewTestCaught(t, alice.ID, p.ID, base.Add(time.Millisecond))
		b1 := NewTestCaught(t, bob.ID, p.ID, base)
		for _, c := range []*model.CaughtPokemon{a2, b1, a1} {
			if err := s.CreateCaughtPokemon(ctx, c); err != nil {
				t.Fatalf("CreateCaughtPokemon: %v", err)
			}
		}

		list, err := s.ListCaughtPokemon(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListCaughtPokemon: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("alice has %d records, want 2", len(list))
		}
		if list[0].ID != a1.ID || list[1].ID != a2.ID {
			t.Errorf("records not oldest first: %s, %s", list[0].ID, list[1].ID)
		}
		for _, c := range list {
			if c.Pokemon == nil || c.Pokemon.Name != p.Name {
				t.Errorf("record %s missing joined pokemon: %+v", c.ID, c.Pokemon)
			}
		}

		n, err := s.DeleteCaughtPokemon(ctx, b1.ID, alice.ID)
		if err != nil {
			t.Fatalf("DeleteCaughtPokemon: %v", err)
		}
		if n != 0 {
			t.Errorf("deleting another user's record removed %d rows", n)
		}
		if list, _ := s.ListCaughtPokemon(ctx, bob.ID); len(list) != 1 {
			t.Errorf("bob has %d records after foreign delete, want 1", len(list))
		}

		if n, _ := s.DeleteCaughtPokemon(ctx, a1.ID, alice.ID); n != 1 {
			t.Errorf("owner delete removed %d rows, want 1", n)
		}
		if n, _ := s.DeleteCaughtPokemon(ctx, a1.ID, alice.ID); n != 0 {
			t.Errorf("second delete removed %d rows, want 0", n)
		}
	})

	t.Run("EmptyListIsNotNil", func(t *testing.T) {
		s := newStore(t)
		list, err := s.ListCaughtPokemon(context.Background(), NewTestUser(t).ID)
		if err != nil {
			t.Fatalf("ListCaughtPokemon: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", list)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
