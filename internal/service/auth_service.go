package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"buppha/internal/domain"
	"buppha/internal/repository"
	"buppha/internal/token"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright
	MaxPasswordLength = 72
)

// AuthService defines the interface for account and session logic
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	LoginWithOAuth(ctx context.Context, identity OAuthIdentity) (*domain.User, string, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	EnsureAdmin(ctx context.Context, email, password, name string) (bool, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(userRepo repository.UserRepository, tokens *token.Manager, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and signs it in
func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	email := normalizeEmail(input.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, "", invalid("email", "invalid_email")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, "", invalid("name", "required")
	}
	// Checked before hashing so short passwords never reach bcrypt
	if len(input.Password) < MinPasswordLength {
		return nil, "", invalid("password", "too_short")
	}
	if len(input.Password) > MaxPasswordLength {
		return nil, "", invalid("password", "too_long")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hashedPassword,
		Name:         name,
		Role:         domain.RoleCustomer,
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return s.signIn(user)
}

// Login verifies a password. Unknown emails, wrong passwords and
// password-less accounts are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := verifyPassword(*user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	return s.signIn(user)
}

// LoginWithOAuth finds or creates the account for a verified provider identity
func (s *authService) LoginWithOAuth(ctx context.Context, identity OAuthIdentity) (*domain.User, string, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, "", invalid("email", "missing_from_provider")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.userRepo.UpdateOAuthProfile(ctx, user.ID, identity.AvatarURL, identity.Provider); err != nil {
			return nil, "", fmt.Errorf("failed to update oauth profile: %w", err)
		}
		if identity.AvatarURL != "" {
			user.AvatarURL = identity.AvatarURL
		}
		user.Provider = identity.Provider
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.createOAuthUser(ctx, email, identity)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	return s.signIn(user)
}

func (s *authService) createOAuthUser(ctx context.Context, email string, identity OAuthIdentity) (*domain.User, error) {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := time.Now()
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Role:      domain.RoleCustomer,
		AvatarURL: identity.AvatarURL,
		Provider:  identity.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrUserAlreadyExists) {
		// Lost a race with a concurrent first sign-in
		return s.userRepo.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Created account from OAuth sign-in",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", identity.Provider),
	)
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	exists, err := s.userRepo.ExistsWithRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if len(password) < MinPasswordLength {
		return false, invalid("admin_password", "too_short")
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	admin := &domain.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: &hashedPassword,
		Name:         name,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to seed admin %s: %w", admin.Email, err)
	}

	s.logger.Info("Seeded admin account", zap.String("email", admin.Email))
	return true, nil
}

func (s *authService) signIn(user *domain.User) (*domain.User, string, error) {
	signed, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, signed, nil
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
