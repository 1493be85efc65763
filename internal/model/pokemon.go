package model

import "time"

// Pokemon is a shared catalog entry, unique by name.
// Entries are created on first catch and never deleted.
type Pokemon struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
