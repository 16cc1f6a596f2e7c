package service

import (
	"context"
	"testing"
	"time"

	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/Rrens/shaman-chat/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, security.NewJWTManager("secret", time.Hour))

		repo.On("EmailExists", ctx, "new@example.com").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{Email: " New@Example.com ", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
		repo.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, security.NewJWTManager("secret", time.Hour))
		repo.On("EmailExists", ctx, "a@example.com").Return(true, nil)

		_, err := svc.Register(ctx, domain.UserCreate{Email: "a@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrEmailTaken)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	jwtManager := security.NewJWTManager("secret", time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "a@example.com", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "a@example.com").Return(user, nil)
		svc := NewAuthService(repo, jwtManager)

		token, err := svc.Login(ctx, domain.UserLogin{Email: "a@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, int64(3600), token.ExpiresIn)

		claims, err := jwtManager.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "a@example.com").Return(user, nil)
		svc := NewAuthService(repo, jwtManager)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "a@example.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", ctx, "b@example.com").Return(nil, nil)
		svc := NewAuthService(repo, jwtManager)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "b@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
