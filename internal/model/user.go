// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Users are immutable after registration.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext carries the verified identity of a bearer token.
type AuthContext struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
