package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CartCookieName = "cart-session"
	CartCookieTTL  = 30 * 24 * time.Hour

	cartSessionKey contextKey = "cart_session"
)

// CartSession makes sure every request carries an anonymous cart id. A new
// id is issued as an httponly cookie when the request has none or a malformed one.
func CartSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(CartCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = cookie.Value
				}
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(CartCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithCartSession(r.Context(), sessionID)))
		})
	}
}

func WithCartSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, cartSessionKey, sessionID)
}

// GetCartSession returns the cart id set by CartSession
func GetCartSession(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(cartSessionKey).(string)
	return sessionID, ok && sessionID != ""
}
