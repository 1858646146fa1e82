package middleware

import (
	"net/http"

	"digitronix/internal/auth"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the caller is an administrator
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.IsAdmin {
				logger.Warn("Non-admin user attempted to access admin endpoint",
					zap.String("user_id", identity.UserID.String()),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
