package history

import (
	"context"
	"errors"

	"github.com/weiawesome/chat-relay/internal/domain"
)

// ErrUnknownUser means the record's username does not resolve to a
// registered user; the record is not written.
var ErrUnknownUser = errors.New("unknown user")

// Store is the durable chat-history collaborator: append on write,
// bounded newest-first read on demand. Records are immutable once
// appended and are never deleted through this interface.
type Store interface {
	// Append persists the record and returns its ID.
	Append(ctx context.Context, record *domain.ChatRecord) (string, error)
	// Recent returns up to limit records, newest-first.
	Recent(ctx context.Context, limit int) ([]domain.ChatRecord, error)
}
