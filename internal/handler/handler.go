// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pokecatch/pokecatch/internal/handler/dto"
	"github.com/pokecatch/pokecatch/internal/middleware"
	"github.com/pokecatch/pokecatch/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler serves the unauthenticated fallback endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is a simple banner endpoint.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from Pokecatch!",
		"version": Version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// decodeJSON reads a JSON body into dst, writing the error response itself
// and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, middleware.CodePayloadTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is required")
	default:
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	}
	return false
}

// handleServiceError maps service errors to HTTP responses. Unknown errors
// are logged and reported as a bare 500.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
	case errors.Is(err, service.ErrEmailExists):
		// Deliberately 409 Conflict, not a 200 with a message.
		writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrPokemonNotFound):
		logger.Info("pokemon lookup failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusNotFound, "POKEMON_NOT_FOUND", "Pokemon not found")
	default:
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, middleware.CodeInternal, "Internal server error")
	}
}
