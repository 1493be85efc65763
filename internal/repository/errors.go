package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors shared by every storage backend.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrPokemonNotFound = errors.New("pokemon not found")
	ErrPokemonExists   = errors.New("pokemon already exists")
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
