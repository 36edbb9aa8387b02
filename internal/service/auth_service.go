package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/players_club/internal/config"
	"github.com/MorseWayne/players_club/internal/domain"
)

// AuthService 后台共享账号登录
type AuthService interface {
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type authService struct {
	username     string
	passwordHash []byte
	jwt          JWTService
	logger       *zap.Logger
}

// NewAuthService 创建认证服务。密码在启动时做一次 bcrypt 哈希，之后只比较哈希
func NewAuthService(cfg config.AdminConfig, jwtService JWTService, logger *zap.Logger) (AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &authService{username: strings.TrimSpace(cfg.Username), jwt: jwtService, logger: logger}
	if cfg.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, "auth.new", "hash admin password")
		}
		s.passwordHash = hash
	}
	return s, nil
}

// Login 校验管理员凭证并签发令牌
func (s *authService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if s.username == "" || s.passwordHash == nil {
		s.logger.Error("admin credentials are not configured")
		return nil, domain.Errorf(domain.EUNAVAILABLE, "auth.login", "Server configuration error")
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		s.logger.Warn("admin login failed", zap.String("username", username))
		return nil, domain.Errorf(domain.EUNAUTHORIZED, "auth.login", "Invalid credentials")
	}

	pair, err := s.jwt.GenerateTokenPair(s.username)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "auth.login", "issue token")
	}
	s.logger.Info("admin logged in", zap.String("username", s.username))
	return pair, nil
}

// Refresh 用刷新令牌换取新令牌对
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.jwt.RefreshTokenPair(refreshToken)
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAUTHORIZED, "auth.refresh", "Invalid or expired refresh token")
	}
	return pair, nil
}
