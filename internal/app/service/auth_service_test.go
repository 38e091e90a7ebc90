package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/internal/app/repository"
	"github.com/ikkim/ridehail-backend/internal/db"
	"github.com/ikkim/ridehail-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authTestSecret = "test-jwt-secret"

func setupAuthServiceTest(t *testing.T) (AuthService, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	hash, err := util.HashPassword("correct-horse")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	reviewer := &model.User{
		Email:        "reviewer@ridehail.test",
		PasswordHash: hash,
		Name:         "Reviewer",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, userRepo.Create(context.Background(), reviewer))

	return NewAuthService(userRepo, authTestSecret, 15*time.Minute, 24*time.Hour), reviewer
}

func TestAuthService_Login(t *testing.T) {
	authService, reviewer := setupAuthServiceTest(t)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		user, tokens, err := authService.Login(ctx, reviewer.Email, "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, reviewer.ID, user.ID)

		claims, err := util.ValidateToken(tokens.AccessToken, authTestSecret)
		require.NoError(t, err)
		assert.Equal(t, reviewer.ID, claims.UserID)
		assert.Equal(t, string(model.RoleAdmin), claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := authService.Login(ctx, reviewer.Email, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := authService.Login(ctx, "nobody@ridehail.test", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	authService, reviewer := setupAuthServiceTest(t)
	ctx := context.Background()

	_, tokens, err := authService.Login(ctx, reviewer.Email, "correct-horse")
	require.NoError(t, err)

	refreshed, err := authService.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = authService.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService, reviewer := setupAuthServiceTest(t)

	user, err := authService.GetUserByID(context.Background(), reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, reviewer.Email, user.Email)

	_, err = authService.GetUserByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
