package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/model"
)

// GetPokemonByName retrieves a catalog entry by its unique name.
func (r *Repository) GetPokemonByName(ctx context.Context, name string) (*model.Pokemon, error) {
	query := `
		SELECT id, name, created_at
		FROM pokemon
		WHERE name = $1
	`

	var p model.Pokemon
	err := r.pool.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPokemonNotFound
		}
		return nil, fmt.Errorf("failed to get pokemon by name: %w", err)
	}

	return &p, nil
}

// CreatePokemon inserts a catalog entry.
// Returns ErrPokemonExists if the name is taken.
func (r *Repository) CreatePokemon(ctx context.Context, p *model.Pokemon) error {
	query := `
		INSERT INTO pokemon (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrPokemonExists
		}
		return fmt.Errorf("failed to create pokemon: %w", err)
	}

	return nil
}

// GetOrCreatePokemon returns the catalog entry for name, creating it if absent.
// The unique constraint on name is the real guard; a lost race re-reads.
func (r *Repository) GetOrCreatePokemon(ctx context.Context, name string) (*model.Pokemon, error) {
	existing, err := r.GetPokemonByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrPokemonNotFound) {
		return nil, err
	}

	p := &model.Pokemon{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.CreatePokemon(ctx, p); err != nil {
		// Handle race condition - another request may have created it
		if errors.Is(err, ErrPokemonExists) {
			return r.GetPokemonByName(ctx, name)
		}
		return nil, err
	}

	return p, nil
}

// CountPokemonByName returns how many catalog rows carry name (0 or 1).
func (r *Repository) CountPokemonByName(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pokemon WHERE name = $1`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pokemon: %w", err)
	}
	return n, nil
}
