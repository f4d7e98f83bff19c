package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/chat-relay/internal/auth"
	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/pkg/log"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles registration and login.
type Service interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
}

type userServiceImpl struct {
	repo   Repository
	tokens *auth.Manager
}

// NewService creates a user service.
func NewService(repo Repository, tokens *auth.Manager) Service {
	return &userServiceImpl{
		repo:   repo,
		tokens: tokens,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	return s.respondWithTokens(ctx, user)
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by username")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respondWithTokens(ctx, user)
}

// Refresh rotates a token pair from a valid refresh token.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	access, refresh, exp, err := s.tokens.RefreshTokens(refreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateToken(access)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByUsername(ctx, claims.Username)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}

func (s *userServiceImpl) respondWithTokens(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	access, refresh, exp, err := s.tokens.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens")
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}
