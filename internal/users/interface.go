package users

import (
	"context"
	"errors"

	"github.com/weiawesome/chat-relay/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// Repository persists chat identities. The relay core resolves the
// username carried on each persisted envelope through this interface.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
