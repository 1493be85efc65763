package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/handler/dto"
	"github.com/pokecatch/pokecatch/internal/middleware"
	"github.com/pokecatch/pokecatch/internal/service"
)

// CaughtHandler serves the authenticated collection endpoints.
// Every handler acts only on the caller's own records.
type CaughtHandler struct {
	svc    *service.CaughtService
	logger *slog.Logger
}

// NewCaughtHandler creates a new CaughtHandler.
func NewCaughtHandler(svc *service.CaughtService, logger *slog.Logger) *CaughtHandler {
	return &CaughtHandler{svc: svc, logger: logger}
}

// Catch handles POST /protected/catch.
func (h *CaughtHandler) Catch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req dto.CatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.svc.Catch(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("pokemon_caught",
		slog.String("user_id", userID),
		slog.String("record_id", record.ID),
		slog.String("pokemon_id", record.PokemonID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, dto.CatchResponse{
		Message: "Pokemon caught",
		Data:    dto.ToCaughtResponse(record),
	})
}

// Release handles DELETE /protected/release/{id}.
// The response is the same whether or not anything was deleted.
func (h *CaughtHandler) Release(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.Release(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Pokemon released"})
}

// List handles GET /protected/caught.
func (h *CaughtHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	records, err := h.svc.List(r.Context(), userID)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCaughtListResponse(records))
}

// caller returns the authenticated user id. A route mounted without the
// auth middleware fails closed.
func (h *CaughtHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, middleware.CodeUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}
