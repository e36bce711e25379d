package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
)

func newUserService() UserService {
	return NewUserService(newMemUserRepo(), []byte("test-secret"), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret!",
		Role:     model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.RoleStaff, user.Role)

	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RoleStaff, claims["role"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, CreateUserRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "correct horse",
		Role:     model.RoleManager,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Username: "bob", Password: "battery staple"})
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "whatever"})
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	req := CreateUserRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "password1",
		Role:     model.RoleAdmin,
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newUserService()

	_, err := svc.Register(context.Background(), CreateUserRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "password1",
		Role:     "superuser",
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUpdateUserChangesRoleAndPassword(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, CreateUserRequest{
		Username: "erin",
		Email:    "erin@example.com",
		Password: "oldpass",
		Role:     model.RoleStaff,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID.String(), UpdateUserRequest{
		Role:     model.RoleManager,
		Password: "newpass",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, updated.Role)

	_, err = svc.Login(ctx, LoginRequest{Username: "erin", Password: "oldpass"})
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	_, err = svc.Login(ctx, LoginRequest{Username: "erin", Password: "newpass"})
	assert.NoError(t, err)
}
