package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService issues tokens for directory members.
type AuthService struct {
	credentials repository.CredentialRepository
	resolver    auth.ActorResolver
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	timeout     time.Duration
	logger      *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Credentials repository.CredentialRepository
	Resolver    auth.ActorResolver
	Tokens      *auth.TokenManager
	Logger      *zap.Logger
}

// LoginResult is a successful login.
type LoginResult struct {
	Actor     domain.Actor
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: deps.Credentials,
		resolver:    deps.Resolver,
		tokenMgr:    tokens,
		bcryptCost:  cfg.Auth.BcryptCost,
		timeout:     cfg.Storage.Timeout(),
		logger:      logger,
	}
}

// Login checks a PSN and password and returns a token carrying the
// directory role the PSN currently holds.
func (s *AuthService) Login(ctx context.Context, psn domain.PSN, password string) (*LoginResult, error) {
	psn = domain.PSN(strings.TrimSpace(string(psn)))
	if psn == "" || password == "" {
		return nil, apperrors.NewValidationError("psn and password required", nil)
	}
	cred, err := storageCall(ctx, s.timeout, "credential", func(ctx context.Context) (*domain.Credential, error) {
		return s.credentials.GetByPSN(ctx, psn)
	})
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(cred.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored credential unusable", zap.String("psn", string(psn)), zap.Error(err))
		}
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if auth.NeedsRehash(cred.PasswordHash, s.bcryptCost) {
		s.rehash(ctx, cred, password)
	}

	actor, err := s.resolver.Resolve(ctx, psn, cred.Kind)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(psn, cred.Kind, actor.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("login", zap.String("psn", string(psn)), zap.String("role", string(actor.Role)))
	return &LoginResult{Actor: actor, Token: token, ExpiresAt: exp}, nil
}

// BootstrapAdmin stores the configured administrator credential. It is a
// no-op when either value is empty.
func (s *AuthService) BootstrapAdmin(ctx context.Context, psn, password string) error {
	if psn == "" || password == "" {
		return nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	now := time.Now()
	return storageExec(ctx, s.timeout, "credential", func(ctx context.Context) error {
		return s.credentials.Save(ctx, &domain.Credential{
			PSN:          domain.PSN(psn),
			Kind:         domain.SubjectKindAdmin,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
}

// rehash upgrades a credential hashed at an outdated cost. Failure keeps
// the old hash and does not block the login.
func (s *AuthService) rehash(ctx context.Context, cred *domain.Credential, password string) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Warn("rehash credential", zap.String("psn", string(cred.PSN)), zap.Error(err))
		return
	}
	updated := *cred
	updated.PasswordHash = hash
	updated.UpdatedAt = time.Now()
	if err := storageExec(ctx, s.timeout, "credential", func(ctx context.Context) error {
		return s.credentials.Save(ctx, &updated)
	}); err != nil {
		s.logger.Warn("rehash credential", zap.String("psn", string(cred.PSN)), zap.Error(err))
	}
}

// Tokens exposes the token manager to the HTTP middleware.
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokenMgr
}
