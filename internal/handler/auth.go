package handler

import (
	"log/slog"
	"net/http"

	"github.com/pokecatch/pokecatch/internal/handler/dto"
	"github.com/pokecatch/pokecatch/internal/middleware"
	"github.com/pokecatch/pokecatch/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: user.Email + " created successfully",
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user_logged_in",
		slog.String("user_id", result.User.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Message:   "Login successful",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}
