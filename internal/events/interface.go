package events

import (
	"context"

	"github.com/weiawesome/chat-relay/internal/domain"
)

// RecordProducer publishes persisted chat records for downstream
// consumers (search indexing, analytics). Producing is best-effort and
// never gates the broadcast path.
type RecordProducer interface {
	ProduceRecord(ctx context.Context, record *domain.ChatRecord) error
	Close() error
}
