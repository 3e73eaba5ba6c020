package service

import (
	"context"
	"testing"
	"time"

	"testcracker/internal/config"
	"testcracker/internal/model"
	"testcracker/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() (*AuthService, *fakeUsers) {
	users := newFakeUsers()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(users, cfg), users
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	s, users := newAuthService()
	ctx := context.Background()

	user, err := s.Register(ctx, RegisterInput{Name: " Asha ", Email: "Asha@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, model.RoleStudent, user.Role)

	stored, err := users.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", stored.Password)

	token, got, err := s.Login(ctx, "ASHA@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	s, _ := newAuthService()
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = s.Register(ctx, RegisterInput{Name: "B", Email: "A@example.com", Password: "password2"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestAuthService_LoginFailures(t *testing.T) {
	s, _ := newAuthService()
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestAuthService_CurrentUser(t *testing.T) {
	s, _ := newAuthService()
	ctx := context.Background()

	user, err := s.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	got, err := s.CurrentUser(ctx, &util.Claims{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = s.CurrentUser(ctx, nil)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}
