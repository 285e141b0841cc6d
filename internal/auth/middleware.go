package auth

import (
	"context"
	"net/http"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/utils"
)

type contextKey string

const sessionIDKey contextKey = "admin_session_id"

// Middleware rejects requests without a live admin session.
func Middleware(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, "Unauthorized", apperr.Unauthorized(err.Error()))
				return
			}
			claims, err := sessions.Validate(r.Context(), raw)
			if err != nil {
				utils.WriteError(w, "Unauthorized", err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionIDKey, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID returns the admin session id set by Middleware.
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}
