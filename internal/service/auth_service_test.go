package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"buppha/internal/domain"
	"buppha/internal/token"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(repo *mockUserRepository) (AuthService, *token.Manager) {
	tokens := token.NewManager("test-secret", 7*24*time.Hour)
	return NewAuthService(repo, tokens, zap.NewNop()), tokens
}

// Feature: storefront, Property: registration stores a bcrypt hash, never the plaintext
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	// bcrypt at cost 10 is slow; a handful of cases is enough
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(local string, password string) bool {
			userRepo := newMockUserRepository()
			svc, _ := newTestAuthService(userRepo)
			ctx := context.Background()

			user, _, err := svc.Register(ctx, RegisterInput{
				Email:    local + "@example.com",
				Password: password,
				Name:     "Prop",
			})
			if err != nil {
				t.Logf("FAIL: registration rejected: %v", err)
				return false
			}

			if user.PasswordHash == nil || *user.PasswordHash == password {
				t.Logf("FAIL: password stored as plaintext for %s", user.Email)
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: password hash doesn't match: %v", err)
				return false
			}
			return true
		},
		gen.Identifier(),
		gen.AlphaString().Map(func(s string) string {
			pw := "pw" + s + "1234"
			if len(pw) > MaxPasswordLength {
				pw = pw[:MaxPasswordLength]
			}
			return pw
		}),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repo := newMockUserRepository()
	svc, tokens := newTestAuthService(repo)

	user, signed, err := svc.Register(ctx, RegisterInput{
		Email:    "  Nok@Example.com ",
		Password: "secret1",
		Name:     "Nok",
		Phone:    "0899999999",
	})
	require.NoError(t, err)
	assert.Equal(t, "nok@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.Equal(t, "0899999999", user.Phone)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterInput{Email: "NOK@example.com", Password: "another1", Name: "Nok 2"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Equal(t, 1, repo.count())
	})
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  RegisterInput
		field  string
		reason string
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "secret1", Name: "A"}, "email", "invalid_email"},
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1", Name: " "}, "name", "required"},
		{"short password", RegisterInput{Email: "a@b.co", Password: "12345", Name: "A"}, "password", "too_short"},
		{"long password", RegisterInput{Email: "a@b.co", Password: strings.Repeat("x", 73), Name: "A"}, "password", "too_long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepository()
			svc, _ := newTestAuthService(repo)

			_, _, err := svc.Register(context.Background(), tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, 0, repo.count())
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newMockUserRepository()
	svc, tokens := newTestAuthService(repo)

	created, err := svc.EnsureAdmin(ctx, "admin@buppha.com", "admin123", "Admin")
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("seeded admin", func(t *testing.T) {
		user, signed, err := svc.Login(ctx, "ADMIN@buppha.com", "admin123")
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())

		claims, err := tokens.Parse(signed)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "admin@buppha.com", "admin124")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost@buppha.com", "admin123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("oauth-only account", func(t *testing.T) {
		_, _, err := svc.LoginWithOAuth(ctx, OAuthIdentity{Provider: domain.ProviderGoogle, Email: "g@gmail.com", Name: "G"})
		require.NoError(t, err)
		_, _, err = svc.Login(ctx, "g@gmail.com", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMockUserRepository()
	svc, _ := newTestAuthService(repo)

	_, err := svc.EnsureAdmin(ctx, "admin@buppha.com", "123", "Admin")
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.EnsureAdmin(ctx, "admin@buppha.com", "admin123", "Admin")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "other@buppha.com", "admin123", "Other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, repo.count())
}

func TestAuthService_LoginWithOAuth(t *testing.T) {
	ctx := context.Background()
	repo := newMockUserRepository()
	svc, _ := newTestAuthService(repo)

	t.Run("creates a passwordless customer", func(t *testing.T) {
		user, signed, err := svc.LoginWithOAuth(ctx, OAuthIdentity{
			Provider:  domain.ProviderGoogle,
			Email:     "Mali@Gmail.com",
			AvatarURL: "https://lh3.example/a.png",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, signed)
		assert.Equal(t, "mali@gmail.com", user.Email)
		assert.Equal(t, "mali", user.Name)
		assert.Nil(t, user.PasswordHash)
		assert.Equal(t, domain.RoleCustomer, user.Role)
		assert.Equal(t, domain.ProviderGoogle, user.Provider)
	})

	t.Run("existing admin keeps role", func(t *testing.T) {
		_, err := svc.EnsureAdmin(ctx, "boss@buppha.com", "admin123", "Boss")
		require.NoError(t, err)

		user, _, err := svc.LoginWithOAuth(ctx, OAuthIdentity{
			Provider:  domain.ProviderGoogle,
			Email:     "boss@buppha.com",
			AvatarURL: "https://lh3.example/b.png",
		})
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())
		assert.Equal(t, "https://lh3.example/b.png", user.AvatarURL)
		assert.NotNil(t, user.PasswordHash)
	})

	t.Run("provider without email", func(t *testing.T) {
		_, _, err := svc.LoginWithOAuth(ctx, OAuthIdentity{Provider: domain.ProviderGoogle})
		assert.ErrorIs(t, err, ErrValidation)
	})
}
