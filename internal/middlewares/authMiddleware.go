package middlewares

import (
	"context"
	"net/http"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/services"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFrom returns the authenticated user's id attached by AuthMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// WithUserID is used by handler tests to seed an authenticated context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// NewAuthMiddleware rejects requests without a live session and attaches the
// session's user id to the request context.
func NewAuthMiddleware(sessionService services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := sessionService.CurrentUserID(r)
			if !ok {
				utils.RespondWithError(w, apperrors.Unauthorized("Unauthorized access to endpoint"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
