package middleware

import (
	"context"
	"net/http"

	"github.com/musat/helpdesk-backend/internal/auth"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userKey stores the authenticated *domain.User.
	userKey contextKey = "authUser"
	// sessionTokenKey stores the raw session token for logout.
	sessionTokenKey contextKey = "sessionToken"
	// sessionIDKey stores the resolved session id.
	sessionIDKey contextKey = "sessionID"
)

// SessionAuth resolves the session cookie into an authenticated user. The
// cookie carries an opaque token; all state lives server-side, so a destroyed
// session fails resolution immediately.
func SessionAuth(authSvc ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ReadSessionToken(r)
			if err != nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			user, sessionID, err := authSvc.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, sessionTokenKey, token)
			ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the authenticated user from the context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// GetPrincipal retrieves the authenticated principal from the context
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	user, ok := GetUser(ctx)
	if !ok {
		return domain.Principal{}, false
	}
	return user.Principal(), true
}

// GetSessionToken retrieves the raw session token from the context
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok
}

// GetSessionID retrieves the session id from the context
func GetSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}
