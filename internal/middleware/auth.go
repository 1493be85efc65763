package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/model"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates requests with a bearer token
// and injects the caller's identity into the request context.
// Every failure gets the same 401 body; the reason is only logged.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				fail(cfg.Logger, recorder, w, r, "missing")
				return
			}

			authCtx, err := cfg.Verifier.Verify(token)
			if err != nil {
				fail(cfg.Logger, recorder, w, r, failureReason(err))
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fail(logger *slog.Logger, recorder metrics.Recorder, w http.ResponseWriter, r *http.Request, reason string) {
	recorder.IncAuthFailure(reason)
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
