package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"digitronix/internal/auth"

	"go.uber.org/zap"
)

// ExemptRoute is a path pattern whose listed methods skip mandatory
// authentication. Other methods on the same path are still gated.
type ExemptRoute struct {
	Pattern *regexp.Regexp
	Methods map[string]bool
}

// Exempt builds an ExemptRoute from an anchored path pattern.
func Exempt(pattern string, methods ...string) ExemptRoute {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return ExemptRoute{Pattern: regexp.MustCompile(pattern), Methods: set}
}

// Matches reports whether the request's method and path are exempt
func (e ExemptRoute) Matches(method, path string) bool {
	return e.Methods[method] && e.Pattern.MatchString(path)
}

// DefaultExemptRoutes is the public surface of the store.
var DefaultExemptRoutes = []ExemptRoute{
	Exempt(`^/api/products(/.*)?$`, http.MethodGet, http.MethodOptions),
	Exempt(`^/api/categories(/.*)?$`, http.MethodGet, http.MethodOptions),
	Exempt(`^/public/uploads(/.*)?$`, http.MethodGet, http.MethodOptions),
	Exempt(`^/api/users/(login|register|logout)/?$`, http.MethodPost, http.MethodOptions),
	Exempt(`^/(health|metrics)$`, http.MethodGet),
}

// AuthConfig configures the authentication gate
type AuthConfig struct {
	CookieName string
	Exempt     []ExemptRoute
}

func (c AuthConfig) isExempt(r *http.Request) bool {
	for _, route := range c.Exempt {
		if route.Matches(r.Method, r.URL.Path) {
			return true
		}
	}
	return false
}

// tokensFromRequest returns the session cookie and the bearer header, in
// that order, skipping whichever is absent.
func tokensFromRequest(r *http.Request, cookieName string) []string {
	var tokens []string
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if bearer := strings.TrimSpace(parts[1]); bearer != "" {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

// AuthMiddleware verifies the session token on every request. A valid token
// attaches the caller's identity to the context, exempt routes included.
// The first carrier that verifies wins, so a stale cookie does not hide a
// valid bearer token. A missing or bad token is rejected with 401 unless
// the route is exempt.
func AuthMiddleware(tokens *auth.TokenManager, config AuthConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidates := tokensFromRequest(r, config.CookieName)

			var verifyErr error
			for _, tokenString := range candidates {
				identity, err := tokens.Verify(tokenString)
				if err == nil {
					logger.Debug("User authenticated",
						zap.String("user_id", identity.UserID.String()),
						zap.Bool("is_admin", identity.IsAdmin),
					)
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
					return
				}
				if verifyErr == nil {
					verifyErr = err
				}
			}

			if config.isExempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			switch {
			case len(candidates) == 0:
				logger.Debug("Missing token", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
			case errors.Is(verifyErr, auth.ErrTokenExpired):
				logger.Debug("Token expired", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "token expired")
			default:
				logger.Debug("Token validation failed", zap.Error(verifyErr))
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
			}
		})
	}
}
