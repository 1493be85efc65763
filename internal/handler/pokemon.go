package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pokecatch/pokecatch/internal/handler/dto"
	"github.com/pokecatch/pokecatch/internal/service"
)

// PokemonHandler serves upstream catalog lookups.
type PokemonHandler struct {
	svc    *service.PokemonService
	logger *slog.Logger
}

// NewPokemonHandler creates a new PokemonHandler.
func NewPokemonHandler(svc *service.PokemonService, logger *slog.Logger) *PokemonHandler {
	return &PokemonHandler{svc: svc, logger: logger}
}

// Get handles GET /pokemon/{name}.
func (h *PokemonHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PokemonResponse{Data: data})
}
