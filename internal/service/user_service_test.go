package service

import (
	"context"
	"strings"
	"testing"

	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_CreateDefaultsAndValidatesRole(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users)
	ctx := context.Background()

	u, err := s.Create(ctx, CreateUserInput{Name: "Student", Email: "s@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, u.Role)

	admin, err := s.Create(ctx, CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "password1", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	_, err = s.Create(ctx, CreateUserInput{Name: "X", Email: "x@example.com", Password: "password1", Role: "ROOT"})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = s.Create(ctx, CreateUserInput{Name: "Dup", Email: "S@example.com", Password: "password1"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestUserService_PasswordLength(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "short", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = s.Create(ctx, CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: strings.Repeat("x", 73)})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Empty(t, users.users)

	u, err := s.Create(ctx, CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "12345678"})
	require.NoError(t, err)

	short := "1234567"
	_, err = s.Update(ctx, u.ID, UpdateUserInput{Password: &short})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestUserService_Update(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users)
	ctx := context.Background()

	u, err := s.Create(ctx, CreateUserInput{Name: "Old", Email: "u@example.com", Password: "password1"})
	require.NoError(t, err)

	name := "New"
	role := model.RoleAdmin
	updated, err := s.Update(ctx, u.ID, UpdateUserInput{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	pw := "another-password"
	_, err = s.Update(ctx, u.ID, UpdateUserInput{Password: &pw})
	require.NoError(t, err)
	stored, _ := users.FindByID(ctx, u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(pw)))

	_, err = s.Update(ctx, u.ID, UpdateUserInput{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	bad := model.Role("ROOT")
	_, err = s.Update(ctx, u.ID, UpdateUserInput{Role: &bad})
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = s.Update(ctx, "missing", UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestUserService_DeleteRestrictedByAttempts(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users)
	ctx := context.Background()

	u, err := s.Create(ctx, CreateUserInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	users.withRefs[u.ID] = true

	assert.ErrorIs(t, s.Delete(ctx, u.ID), util.ErrForeignKeyViolation)

	users.withRefs[u.ID] = false
	assert.NoError(t, s.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Delete(ctx, u.ID), util.ErrNotFound)
}

func TestUserService_ListPaginates(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users)
	ctx := context.Background()

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := s.Create(ctx, CreateUserInput{Name: email, Email: email, Password: "password1"})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, repository.Query{Take: 2})
	require.NoError(t, err)
	assert.Len(t, page.List, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, users.order[2], page.NextCursor)

	page, err = s.List(ctx, repository.Query{Skip: 2, Take: 2})
	require.NoError(t, err)
	assert.Len(t, page.List, 1)
	assert.Empty(t, page.NextCursor)
}

func TestUserService_CountByRole(t *testing.T) {
	users := newFakeUsers()
	users.groups = []repository.AggregateResult{
		{"role": "STUDENT", "_count": int64(5)},
	}
	s := NewUserService(users)

	counts, err := s.CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[model.Role]int64{model.RoleStudent: 5, model.RoleAdmin: 0}, counts)
}
