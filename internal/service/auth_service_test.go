package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/config"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/pkg/jwt"
	"github.com/xxxsen/literag/internal/pkg/password"
	"github.com/xxxsen/literag/internal/service"
)

func TestAuthServiceLogin(t *testing.T) {
	hash, err := password.Hash("secret-pass")
	require.NoError(t, err)

	auth := service.NewAuthService(config.AuthConfig{
		JWTSecret:    "test-jwt-secret",
		TTLHours:     1,
		AdminUser:    "admin",
		AdminPassByc: hash,
	})

	token, err := auth.Login(context.Background(), "admin", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwt.ParseToken(token, []byte("test-jwt-secret"))
	require.NoError(t, err)
	require.Equal(t, "admin", claims.User)

	_, err = auth.Login(context.Background(), "admin", "wrong-pass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	_, err = auth.Login(context.Background(), "not-admin", "secret-pass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}
