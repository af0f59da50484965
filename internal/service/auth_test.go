package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"club_meetings/internal/config"
	"club_meetings/internal/domain"
	apperrors "club_meetings/pkg/errors"
	"club_meetings/pkg/logger"
)

func newAuthServiceForTest() (AuthService, *MockUserRepository) {
	userRepo := new(MockUserRepository)
	jwtCfg := config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
	return NewAuthService(userRepo, jwtCfg, logger.New("error")), userRepo
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("успешная регистрация", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, apperrors.NotFound("user not found"))
		userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, " Alice@Example.com ", "password123", "Alice")

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.Empty(t, user.PasswordHash)
		assert.True(t, user.IsActive)
	})

	t.Run("ошибка: короткий пароль", func(t *testing.T) {
		svc, _ := newAuthServiceForTest()

		_, err := svc.Register(ctx, "alice@example.com", "short", "Alice")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("ошибка: email занят", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()
		existing := &domain.User{ID: uuid.New(), Email: "alice@example.com"}

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(existing, nil)

		_, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ошибка: некорректный email", func(t *testing.T) {
		svc, _ := newAuthServiceForTest()

		_, err := svc.Register(ctx, "not-an-email", "password123", "Alice")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	activeUser := func() *domain.User {
		return &domain.User{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			PasswordHash: string(hash),
			DisplayName:  "Alice",
			IsActive:     true,
		}
	}

	t.Run("успешный вход выдает пару токенов", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()
		user := activeUser()

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		userRepo.On("CreateSession", mock.Anything, mock.AnythingOfType("*domain.UserSession")).Return(nil)
		userRepo.On("Update", mock.Anything, user).Return(nil)

		resp, err := svc.Login(ctx, "alice@example.com", "password123")

		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Empty(t, resp.User.PasswordHash)
		require.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("ошибка: неверный пароль не раскрывает причину", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(), nil)

		_, err := svc.Login(ctx, "alice@example.com", "wrong-password")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("ошибка: несуществующий пользователь дает ту же ошибку", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()

		userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.NotFound("user not found"))

		_, err := svc.Login(ctx, "ghost@example.com", "password123")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("ошибка: деактивированный пользователь", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()
		user := activeUser()
		user.IsActive = false

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		_, err := svc.Login(ctx, "alice@example.com", "password123")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("валидный access-токен возвращает пользователя", func(t *testing.T) {
		svc, userRepo := newAuthServiceForTest()
		user := &domain.User{ID: uuid.New(), Email: "alice@example.com", IsActive: true}

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
			ID:           user.ID,
			Email:        user.Email,
			PasswordHash: mustHash(t, "password123"),
			IsActive:     true,
		}, nil)
		userRepo.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
		userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		resp, err := svc.Login(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		validated, err := svc.ValidateToken(ctx, resp.AccessToken)

		require.NoError(t, err)
		assert.Equal(t, user.ID, validated.ID)
	})

	t.Run("ошибка: мусорный токен", func(t *testing.T) {
		svc, _ := newAuthServiceForTest()

		_, err := svc.ValidateToken(ctx, "not.a.jwt")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}
