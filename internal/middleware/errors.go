// Package middleware provides HTTP middleware for the Pokecatch API.
package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by middleware.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeError writes the JSON error body shared by every failure response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message, Code: code})
}
