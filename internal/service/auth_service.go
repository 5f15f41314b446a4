package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/config"
	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/repository"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

// AuthService coordinates login and credential issuance. Passwords are
// bcrypt only: legacy plaintext rows must be migrated before deploy, there
// is no fallback comparison path.
type AuthService struct {
	users       repository.UserRepository
	attempts    repository.LoginAttemptRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	LoginAttemptRepo repository.LoginAttemptRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		attempts:    deps.LoginAttemptRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours),
		bcryptCost:  cfg.Auth.BcryptCost,
		maxAttempts: cfg.Auth.LoginMaxAttempts,
		window:      cfg.Auth.LoginWindow(),
		logger:      logger,
	}
}

// Login authenticates by username and password and issues a credential.
// Invalid username and invalid password produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password, remoteIP string) (*domain.User, string, time.Time, error) {
	if s.attempts != nil && s.maxAttempts > 0 {
		key := fmt.Sprintf("%s:%s", username, remoteIP)
		allowed, err := s.attempts.Allow(ctx, key, s.maxAttempts, s.window)
		if err == nil && !allowed {
			return nil, "", time.Time{}, apperrors.NewTooManyRequests("too many login attempts")
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	if s.attempts != nil {
		_ = s.attempts.Reset(ctx, fmt.Sprintf("%s:%s", username, remoteIP))
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// BootstrapAdmin ensures an initial admin account exists when configured.
// A no-op when the username is empty or already present.
func (s *AuthService) BootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if err != pgx.ErrNoRows {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", cfg.AdminUsername))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
