// Package sqlite provides an embedded SQLite storage backend built on
// modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pokecatch/pokecatch/internal/model"
	"github.com/pokecatch/pokecatch/internal/repository"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS pokemon (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS caught_pokemon (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		pokemon_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(pokemon_id) REFERENCES pokemon(id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_caught_pokemon_user ON caught_pokemon(user_id, created_at);`,
}

// Store is a SQLite-backed store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user. Returns repository.ErrEmailExists on duplicates.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	)

	var user model.User
	var created int64
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	user.CreatedAt = fromMillis(created)
	return &user, nil
}

func (s *Store) getPokemonByName(ctx context.Context, name string) (*model.Pokemon, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM pokemon WHERE name = ?`, name)

	var p model.Pokemon
	var created int64
	if err := row.Scan(&p.ID, &p.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrPokemonNotFound
		}
		return nil, fmt.Errorf("failed to get pokemon by name: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

// GetOrCreatePokemon returns the catalog entry for name, creating it if absent.
func (s *Store) GetOrCreatePokemon(ctx context.Context, name string) (*model.Pokemon, error) {
	existing, err := s.getPokemonByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrPokemonNotFound) {
		return nil, err
	}

	p := &model.Pokemon{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pokemon (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return s.getPokemonByName(ctx, name)
		}
		return nil, fmt.Errorf("failed to create pokemon: %w", err)
	}
	return p, nil
}

// CountPokemonByName returns how many catalog rows carry name (0 or 1).
func (s *Store) CountPokemonByName(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pokemon WHERE name = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pokemon: %w", err)
	}
	return n, nil
}

// CreateCaughtPokemon inserts an ownership record.
func (s *Store) CreateCaughtPokemon(ctx context.Context, c *model.CaughtPokemon) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO caught_pokemon (id, user_id, pokemon_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.PokemonID, c.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create caught pokemon: %w", err)
	}
	return nil
}

// DeleteCaughtPokemon deletes the record only if userID owns it.
func (s *Store) DeleteCaughtPokemon(ctx context.Context, id, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM caught_pokemon WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete caught pokemon: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// ListCaughtPokemon returns every record owned by userID, oldest first.
func (s *Store) ListCaughtPokemon(ctx context.Context, userID string) ([]*model.CaughtPokemon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.pokemon_id, c.created_at, p.id, p.name, p.created_at
		FROM caught_pokemon c
		JOIN pokemon p ON p.id = c.pokemon_id
		WHERE c.user_id = ?
		ORDER BY c.created_at ASC, c.id ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list caught pokemon: %w", err)
	}
	defer rows.Close()

	records := make([]*model.CaughtPokemon, 0)
	for rows.Next() {
		c := &model.CaughtPokemon{Pokemon: &model.Pokemon{}}
		var caughtAt, pokemonAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.PokemonID, &caughtAt, &c.Pokemon.ID, &c.Pokemon.Name, &pokemonAt); err != nil {
			return nil, fmt.Errorf("failed to scan caught pokemon: %w", err)
		}
		c.CreatedAt = fromMillis(caughtAt)
		c.Pokemon.CreatedAt = fromMillis(pokemonAt)
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caught pokemon: %w", err)
	}
	return records, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
