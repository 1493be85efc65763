package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	// MaxEmailLength is the RFC 5321 path limit.
	MaxEmailLength = 254
	// MaxPasswordLength bounds hashing work per request.
	MaxPasswordLength = 1024
	// MaxPokemonNameLength is the longest accepted catalog name.
	MaxPokemonNameLength = 64
)

// Catalog names are lowercase ASCII words joined by hyphens or dots,
// e.g. "pikachu", "mr-mime", "mime-jr.".
var pokemonNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]*$`)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks a normalized email address.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if len(email) > MaxEmailLength {
		return invalid("email", "is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is not a valid address")
	}
	return nil
}

// ValidatePassword checks a plaintext password. Any non-empty password is
// accepted; strength policy is left to clients.
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "is required")
	}
	if len(password) > MaxPasswordLength {
		return invalid("password", "is too long")
	}
	if !utf8.ValidString(password) {
		return invalid("password", "must be valid UTF-8")
	}
	return nil
}

// NormalizePokemonName trims and lowercases name and checks its format.
func NormalizePokemonName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", invalid("name", "is required")
	}
	if len(n) > MaxPokemonNameLength {
		return "", invalid("name", "is too long")
	}
	if !pokemonNameRegex.MatchString(n) {
		return "", invalid("name", "contains invalid characters")
	}
	return n, nil
}
