package middleware

import (
	"net/http"

	"buppha/internal/domain"
	"buppha/internal/i18n"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the caller has the admin role
func RequireAdmin(localizer *i18n.Localizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleAdmin}, localizer, logger)
}

// RequireRole middleware ensures the caller has one of the specified roles.
// Anonymous callers and callers with another role both get 401.
func RequireRole(allowedRoles []string, localizer *i18n.Localizer, logger *zap.Logger) func(http.Handler) http.Handler {
	requireAuth := RequireAuth(localizer, logger)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetClaims(r.Context())

			allowed := false
			for _, allowedRole := range allowedRoles {
				if claims.Role == allowedRole {
					allowed = true
					break
				}
			}

			if !allowed {
				logger.Warn("User role not authorized",
					zap.String("user_id", claims.UserID.String()),
					zap.String("role", claims.Role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				respondUnauthorized(w, r, localizer)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
