package repository

import (
	"context"
	"fmt"

	"github.com/pokecatch/pokecatch/internal/model"
)

// CreateCaughtPokemon inserts an ownership record.
func (r *Repository) CreateCaughtPokemon(ctx context.Context, c *model.CaughtPokemon) error {
	query := `
		INSERT INTO caught_pokemon (id, user_id, pokemon_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.PokemonID, c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create caught pokemon: %w", err)
	}

	return nil
}

// DeleteCaughtPokemon deletes the record only if userID owns it.
// Returns the number of deleted rows; zero is not an error.
func (r *Repository) DeleteCaughtPokemon(ctx context.Context, id, userID string) (int64, error) {
	query := `
		DELETE FROM caught_pokemon
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete caught pokemon: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListCaughtPokemon returns every record owned by userID, oldest first,
// joined with its catalog entry.
func (r *Repository) ListCaughtPokemon(ctx context.Context, userID string) ([]*model.CaughtPokemon, error) {
	query := `
		SELECT c.id, c.user_id, c.pokemon_id, c.created_at, p.id, p.name, p.created_at
		FROM caught_pokemon c
		JOIN pokemon p ON p.id = c.pokemon_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list caught pokemon: %w", err)
	}
	defer rows.Close()

	records := make([]*model.CaughtPokemon, 0)
	for rows.Next() {
		c := &model.CaughtPokemon{Pokemon: &model.Pokemon{}}
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.PokemonID,
			&c.CreatedAt,
			&c.Pokemon.ID,
			&c.Pokemon.Name,
			&c.Pokemon.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan caught pokemon: %w", err)
		}
		records = append(records, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caught pokemon: %w", err)
	}

	return records, nil
}
