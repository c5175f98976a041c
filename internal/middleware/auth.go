package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"buppha/internal/i18n"
	"buppha/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	claimsKey contextKey = "claims"

	// AuthCookieName carries the session token for browser clients
	AuthCookieName = "auth-token"
)

// TokenFromRequest reads the session token from the auth cookie, falling
// back to an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// OptionalAuth resolves the caller's session when a valid token is present.
// A missing or bad token leaves the request anonymous; it never fails it.
func OptionalAuth(tokens *token.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.Debug("Ignoring invalid session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAuth rejects requests without a session. It must run after OptionalAuth.
func RequireAuth(localizer *i18n.Localizer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetClaims(r.Context()); !ok {
				logger.Debug("Missing session", zap.String("path", r.URL.Path))
				respondUnauthorized(w, r, localizer)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, localizer *i18n.Localizer) {
	RespondWithErrorDetails(w, http.StatusUnauthorized,
		localizer.Message(r.Header.Get("Accept-Language"), i18n.MsgUnauthorized),
		map[string]interface{}{"reason": "unauthorized"})
}

// WithClaims stores verified session claims in ctx
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims extracts the session claims from request context
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok && claims != nil
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// SetAuthCookie hands the session token to the browser
func SetAuthCookie(w http.ResponseWriter, signed string, expiry time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie expires the session cookie
func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
