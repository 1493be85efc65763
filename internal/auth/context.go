package auth

import (
	"context"
	"sync"

	"github.com/pokecatch/pokecatch/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// authContextKey is the context key for storing AuthContext.
	authContextKey contextKey = "auth_context"
	// holderKey is the context key for an outer request's Holder.
	holderKey contextKey = "auth_holder"
)

// Holder lets middleware running before authentication learn who the
// caller turned out to be, e.g. for access logs.
type Holder struct {
	mu     sync.Mutex
	userID string
}

// UserID returns the authenticated user id, or "" if none was recorded.
func (h *Holder) UserID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.userID
}

// ContextWithHolder attaches h to ctx. ContextWithAuth fills it in.
func ContextWithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// ContextWithAuth adds AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	if h, ok := ctx.Value(holderKey).(*Holder); ok && auth != nil {
		h.mu.Lock()
		h.userID = auth.UserID
		h.mu.Unlock()
	}
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves AuthContext from the context.
// Returns nil if not present.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// UserIDFromContext is a convenience function to get user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.UserID
}
