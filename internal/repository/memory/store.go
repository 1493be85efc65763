// Package memory provides an in-process storage backend. Data lives only as
// long as the process; it backs tests and DATABASE_URL=memory://.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/model"
	"github.com/pokecatch/pokecatch/internal/repository"
)

// Store keeps users, catalog entries and ownership records in maps.
type Store struct {
	mu          sync.RWMutex
	usersByMail map[string]*model.User
	pokemon     map[string]*model.Pokemon // by name
	caught      map[string]*model.CaughtPokemon
}

// New creates an empty store.
func New() *Store {
	return &Store{
		usersByMail: make(map[string]*model.User),
		pokemon:     make(map[string]*model.Pokemon),
		caught:      make(map[string]*model.CaughtPokemon),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateUser stores a copy of user.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByMail[user.Email]; ok {
		return repository.ErrEmailExists
	}
	u := *user
	s.usersByMail[user.Email] = &u
	return nil
}

// GetUserByEmail returns a copy of the stored user.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByMail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetOrCreatePokemon returns the catalog entry for name, creating it if absent.
func (s *Store) GetOrCreatePokemon(_ context.Context, name string) (*model.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pokemon[name]; ok {
		cp := *p
		return &cp, nil
	}
	p := &model.Pokemon{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.pokemon[name] = p
	cp := *p
	return &cp, nil
}

// CountPokemonByName returns how many catalog entries carry name (0 or 1).
func (s *Store) CountPokemonByName(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.pokemon[name]; ok {
		return 1, nil
	}
	return 0, nil
}

// CreateCaughtPokemon stores a copy of c.
func (s *Store) CreateCaughtPokemon(_ context.Context, c *model.CaughtPokemon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	cp.Pokemon = nil
	s.caught[c.ID] = &cp
	return nil
}

// DeleteCaughtPokemon removes the record only if userID owns it.
func (s *Store) DeleteCaughtPokemon(_ context.Context, id, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caught[id]
	if !ok || !c.IsOwnedBy(userID) {
		return 0, nil
	}
	delete(s.caught, id)
	return 1, nil
}

// ListCaughtPokemon returns every record owned by userID, oldest first.
func (s *Store) ListCaughtPokemon(_ context.Context, userID string) ([]*model.CaughtPokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*model.Pokemon, len(s.pokemon))
	for _, p := range s.pokemon {
		byID[p.ID] = p
	}

	records := make([]*model.CaughtPokemon, 0)
	for _, c := range s.caught {
		if !c.IsOwnedBy(userID) {
			continue
		}
		cp := *c
		if p, ok := byID[c.PokemonID]; ok {
			pc := *p
			cp.Pokemon = &pc
		}
		records = append(records, &cp)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}
