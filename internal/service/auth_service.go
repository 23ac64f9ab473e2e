package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/config"
	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/pkg/jwt"
	"github.com/xxxsen/literag/internal/pkg/password"
)

type AuthService struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// Login checks the configured admin credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, user, pass string) (string, error) {
	if user != s.cfg.AdminUser || password.Compare(s.cfg.AdminPassByc, pass) != nil {
		logutil.GetLogger(ctx).Warn("login rejected", zap.String("user", user))
		return "", appErr.ErrUnauthorized
	}
	ttl := time.Duration(s.cfg.TTLHours) * time.Hour
	token, err := jwt.GenerateToken(user, []byte(s.cfg.JWTSecret), ttl)
	if err != nil {
		return "", err
	}
	return token, nil
}
