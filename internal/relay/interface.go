package relay

import (
	"context"
	"errors"

	"github.com/weiawesome/chat-relay/internal/hub"
)

// ErrPersistenceFailed means a chat message could not be stored; it is
// dropped from broadcast so no live message ever lacks a durable record.
var ErrPersistenceFailed = errors.New("persistence failed")

// Service routes inbound envelopes: signaling is relayed untouched and
// unstored, chat is persisted first and fanned out with a fresh display
// timestamp.
type Service interface {
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleMessage(ctx context.Context, client *hub.Client, raw []byte) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
}
