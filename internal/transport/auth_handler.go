package transport

import (
	"net/http"
	"net/url"
	"time"

	"buppha/internal/domain"
	"buppha/internal/middleware"
	"buppha/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserProfile is the public view of an account
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AuthResponse is returned after a successful sign-in
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// SessionResponse carries the current user, or null when signed out
type SessionResponse struct {
	User *UserProfile `json:"user"`
}

func toProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
	}
}

// AuthHandler handles sign-in, registration and session lookups
type AuthHandler struct {
	authService   service.AuthService
	oauthService  service.OAuthService
	respond       *Responder
	tokenExpiry   time.Duration
	secureCookies bool
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, oauthService service.OAuthService, respond *Responder,
	tokenExpiry time.Duration, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		oauthService:  oauthService,
		respond:       respond,
		tokenExpiry:   tokenExpiry,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers all auth routes. Credential endpoints go behind limiter.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
		r.Get("/google", h.GoogleBegin)
		r.Get("/google/callback", h.GoogleCallback)
	})
}

// Register handles customer registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		h.respond.BadRequest(w, r, err)
		return
	}

	user, signed, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.SetAuthCookie(w, signed, h.tokenExpiry, h.secureCookies)
	middleware.RespondWithJSON(w, http.StatusCreated, AuthResponse{Token: signed, User: toProfile(user)})
}

// Login handles password authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		h.respond.BadRequest(w, r, err)
		return
	}

	user, signed, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.SetAuthCookie(w, signed, h.tokenExpiry, h.secureCookies)
	middleware.RespondWithJSON(w, http.StatusOK, AuthResponse{Token: signed, User: toProfile(user)})
}

// Logout drops the session cookie. Tokens are stateless, so nothing is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAuthCookie(w, h.secureCookies)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session returns the signed-in user or null. It never fails.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{})
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Debug("Session user lookup failed", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{})
		return
	}

	profile := toProfile(user)
	middleware.RespondWithJSON(w, http.StatusOK, SessionResponse{User: &profile})
}

// GoogleBegin redirects to Google's consent screen
func (h *AuthHandler) GoogleBegin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.oauthService.Begin(r.Context(), r.URL.Query().Get("callbackUrl"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallback finishes the Google flow and sends the browser back to the
// page it started from. Failures land on the login page.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.oauthService.Complete(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		h.logger.Warn("Google sign-in failed",
			zap.Error(err),
			zap.String("provider_error", query.Get("error")),
		)
		http.Redirect(w, r, "/login?"+url.Values{"error": {"oauth_failed"}}.Encode(), http.StatusFound)
		return
	}

	middleware.SetAuthCookie(w, result.Token, h.tokenExpiry, h.secureCookies)
	http.Redirect(w, r, result.Redirect, http.StatusFound)
}
