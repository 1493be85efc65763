// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"time"

	"github.com/pokecatch/pokecatch/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// CredentialsRequest is the body of POST /register and POST /login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CatchRequest is the body of POST /protected/catch.
type CatchRequest struct {
	Name string `json:"name"`
}

// PokemonRef is the catalog data embedded in listed records.
type PokemonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CaughtResponse represents an ownership record in API responses.
type CaughtResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	PokemonID string      `json:"pokemon_id"`
	CreatedAt time.Time   `json:"created_at"`
	Pokemon   *PokemonRef `json:"pokemon,omitempty"`
}

// CatchResponse is returned by POST /protected/catch.
type CatchResponse struct {
	Message string         `json:"message"`
	Data    CaughtResponse `json:"data"`
}

// CaughtListResponse is returned by GET /protected/caught.
type CaughtListResponse struct {
	Data []CaughtResponse `json:"data"`
}

// PokemonResponse wraps the upstream catalog document.
type PokemonResponse struct {
	Data json.RawMessage `json:"data"`
}

// ToCaughtResponse converts a model.CaughtPokemon to its API form.
func ToCaughtResponse(c *model.CaughtPokemon) CaughtResponse {
	resp := CaughtResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		PokemonID: c.PokemonID,
		CreatedAt: c.CreatedAt,
	}
	if c.Pokemon != nil {
		resp.Pokemon = &PokemonRef{ID: c.Pokemon.ID, Name: c.Pokemon.Name}
	}
	return resp
}

// ToCaughtListResponse converts records, never returning a null list.
func ToCaughtListResponse(records []*model.CaughtPokemon) CaughtListResponse {
	data := make([]CaughtResponse, 0, len(records))
	for _, c := range records {
		data = append(data, ToCaughtResponse(c))
	}
	return CaughtListResponse{Data: data}
}
