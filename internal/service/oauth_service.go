package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"buppha/internal/cache"
	"buppha/internal/domain"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
)

const OAuthStateTTL = 10 * time.Minute

// OAuthIdentity is what a provider vouches for after a code exchange
type OAuthIdentity struct {
	Provider  string
	Email     string
	Name      string
	AvatarURL string
}

// IdentityProvider hides the OAuth dance of one provider
type IdentityProvider interface {
	Name() string
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*OAuthIdentity, error)
}

type googleProvider struct {
	provider *google.Provider
}

// NewGoogleProvider wraps goth's Google provider with the profile and email scopes
func NewGoogleProvider(clientID, clientSecret, callbackURL string) IdentityProvider {
	return &googleProvider{
		provider: google.New(clientID, clientSecret, callbackURL, "email", "profile"),
	}
}

func (g *googleProvider) Name() string {
	return domain.ProviderGoogle
}

func (g *googleProvider) AuthURL(state string) (string, error) {
	sess, err := g.provider.BeginAuth(state)
	if err != nil {
		return "", fmt.Errorf("failed to begin google auth: %w", err)
	}
	return sess.GetAuthURL()
}

func (g *googleProvider) Exchange(_ context.Context, code string) (*OAuthIdentity, error) {
	sess := &google.Session{}
	if _, err := sess.Authorize(g.provider, url.Values{"code": {code}}); err != nil {
		return nil, fmt.Errorf("failed to exchange google code: %w", err)
	}

	user, err := g.provider.FetchUser(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google profile: %w", err)
	}

	return identityFromGoth(user), nil
}

func identityFromGoth(user goth.User) *OAuthIdentity {
	name := user.Name
	if name == "" {
		name = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	return &OAuthIdentity{
		Provider:  domain.ProviderGoogle,
		Email:     user.Email,
		Name:      name,
		AvatarURL: user.AvatarURL,
	}
}

// OAuthService runs the redirect-based sign-in flow
type OAuthService interface {
	Begin(ctx context.Context, redirect string) (string, error)
	Complete(ctx context.Context, state, code string) (*OAuthResult, error)
}

type OAuthResult struct {
	User     *domain.User
	Token    string
	Redirect string
}

type oauthState struct {
	Redirect string `json:"redirect"`
}

type oauthService struct {
	provider IdentityProvider
	states   cache.Cache
	auth     AuthService
	logger   *zap.Logger
}

// NewOAuthService creates the flow for provider. A nil provider makes every
// call fail with ErrOAuthUnavailable.
func NewOAuthService(provider IdentityProvider, states cache.Cache, auth AuthService, logger *zap.Logger) OAuthService {
	return &oauthService{
		provider: provider,
		states:   states,
		auth:     auth,
		logger:   logger,
	}
}

// Begin stores a single-use state for redirect and returns the consent URL
func (s *oauthService) Begin(ctx context.Context, redirect string) (string, error) {
	if s.provider == nil {
		return "", ErrOAuthUnavailable
	}

	state := uuid.NewString()
	payload, err := json.Marshal(oauthState{Redirect: SafeRedirect(redirect)})
	if err != nil {
		return "", fmt.Errorf("failed to encode oauth state: %w", err)
	}

	if err := s.states.Set(ctx, s.states.GenerateKey("oauth_state", state), payload, OAuthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return s.provider.AuthURL(state)
}

// Complete consumes state, exchanges code and signs the user in
func (s *oauthService) Complete(ctx context.Context, state, code string) (*OAuthResult, error) {
	if s.provider == nil {
		return nil, ErrOAuthUnavailable
	}
	if state == "" || code == "" {
		return nil, ErrOAuthState
	}

	raw, err := s.states.Take(ctx, s.states.GenerateKey("oauth_state", state))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrOAuthState
		}
		return nil, fmt.Errorf("failed to load oauth state: %w", err)
	}

	var stored oauthState
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, ErrOAuthState
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, signed, err := s.auth.LoginWithOAuth(ctx, *identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("OAuth sign-in completed",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", s.provider.Name()),
	)

	return &OAuthResult{
		User:     user,
		Token:    signed,
		Redirect: SafeRedirect(stored.Redirect),
	}, nil
}

// SafeRedirect keeps only site-local paths; anything else becomes "/"
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") ||
		strings.HasPrefix(target, "/\\") || strings.ContainsAny(target, "\r\n") {
		return "/"
	}
	return target
}
