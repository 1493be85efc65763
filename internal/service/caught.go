package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/model"
)

// CaughtStore persists the shared catalog and per-user ownership records.
type CaughtStore interface {
	GetOrCreatePokemon(ctx context.Context, name string) (*model.Pokemon, error)
	CreateCaughtPokemon(ctx context.Context, c *model.CaughtPokemon) error
	DeleteCaughtPokemon(ctx context.Context, id, userID string) (int64, error)
	ListCaughtPokemon(ctx context.Context, userID string) ([]*model.CaughtPokemon, error)
}

// CaughtService scopes every catch, release and list to the calling user.
type CaughtService struct {
	store   CaughtStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewCaughtService creates a new CaughtService.
func NewCaughtService(store CaughtStore, recorder metrics.Recorder) *CaughtService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CaughtService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// Catch records that userID caught the pokemon called name. The catalog
// entry is created on first catch; repeated catches create new records.
func (s *CaughtService) Catch(ctx context.Context, userID, name string) (*model.CaughtPokemon, error) {
	name, err := NormalizePokemonName(name)
	if err != nil {
		return nil, err
	}

	pokemon, err := s.store.GetOrCreatePokemon(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create pokemon: %w", err)
	}

	record := &model.CaughtPokemon{
		ID:        ulid.Make().String(),
		UserID:    userID,
		PokemonID: pokemon.ID,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.CreateCaughtPokemon(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create caught pokemon: %w", err)
	}

	s.metrics.IncPokemonCaught()
	return record, nil
}

// Release deletes the record if userID owns it. A missing record or one
// owned by someone else is a silent no-op, so callers learn nothing about
// other users' records.
func (s *CaughtService) Release(ctx context.Context, userID, id string) error {
	n, err := s.store.DeleteCaughtPokemon(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to release pokemon: %w", err)
	}
	if n > 0 {
		s.metrics.IncPokemonReleased()
	}
	return nil
}

// List returns the records owned by userID, oldest first.
func (s *CaughtService) List(ctx context.Context, userID string) ([]*model.CaughtPokemon, error) {
	records, err := s.store.ListCaughtPokemon(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list caught pokemon: %w", err)
	}
	return records, nil
}
