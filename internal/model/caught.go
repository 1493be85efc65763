package model

import "time"

// CaughtPokemon links a user to a catalog entry. It is only visible to,
// and deletable by, the user stored on it.
type CaughtPokemon struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PokemonID string    `json:"pokemon_id"`
	CreatedAt time.Time `json:"created_at"`

	// Pokemon is populated when listing.
	Pokemon *Pokemon `json:"pokemon,omitempty"`
}

// IsOwnedBy reports whether the record belongs to userID.
func (c *CaughtPokemon) IsOwnedBy(userID string) bool {
	return userID != "" && c.UserID == userID
}
