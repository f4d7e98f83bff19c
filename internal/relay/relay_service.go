package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/chat-relay/internal/config"
	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/internal/events"
	"github.com/weiawesome/chat-relay/internal/history"
	"github.com/weiawesome/chat-relay/internal/hub"
	"github.com/weiawesome/chat-relay/internal/timefmt"
	"github.com/weiawesome/chat-relay/pkg/log"
)

type relayService struct {
	hub       *hub.Hub
	store     history.Store
	producer  events.RecordProducer // nil when disabled
	formatter *timefmt.Formatter

	roomID        string
	includeSender bool

	now func() time.Time
}

// NewService creates the broadcast router for the shared room.
func NewService(
	h *hub.Hub,
	store history.Store,
	producer events.RecordProducer,
	formatter *timefmt.Formatter,
	roomCfg config.RoomConfig,
) Service {
	return &relayService{
		hub:           h,
		store:         store,
		producer:      producer,
		formatter:     formatter,
		roomID:        roomCfg.DefaultID,
		includeSender: roomCfg.IncludeSender,
		now:           time.Now,
	}
}

// HandleConnect registers the client in the shared room.
func (s *relayService) HandleConnect(ctx context.Context, client *hub.Client) error {
	s.hub.JoinRoom(client, s.roomID)
	return nil
}

// HandleMessage decodes and routes one inbound frame. Decode and
// persistence errors are answered to the sender only; the room never
// sees them and the connection stays open.
func (s *relayService) HandleMessage(ctx context.Context, client *hub.Client, raw []byte) error {
	env, err := domain.DecodeEnvelope(raw)
	if err != nil {
		client.SendJSON(domain.NewErrorEnvelope(domain.ErrCodeBadRequest, "invalid message"))
		return err
	}

	if env.Signal() {
		// Signaling is peer-addressed by payload content. Relay the
		// original bytes untouched so fields the router does not
		// understand survive the round trip.
		s.hub.Broadcast(s.roomID, raw, s.exclude(client))
		return nil
	}

	if env.Username == "" {
		client.SendJSON(domain.NewErrorEnvelope(domain.ErrCodeBadRequest, "username is required"))
		return fmt.Errorf("chat envelope without username")
	}

	// Persist before fan-out, and outside any membership lock; a live
	// chat message must always have a durable backing record.
	record := &domain.ChatRecord{
		Username: env.Username,
		Message:  env.Message,
		MsgType:  env.MsgType,
		MediaURL: env.MediaURL,
	}
	if _, err := s.store.Append(ctx, record); err != nil {
		code := domain.ErrCodeInternalError
		if errors.Is(err, history.ErrUnknownUser) {
			code = domain.ErrCodeUnknownUser
		}
		client.SendJSON(domain.NewErrorEnvelope(code, "message not delivered"))
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if s.producer != nil {
		if err := s.producer.ProduceRecord(ctx, record); err != nil {
			// Non-critical; the record is already durable.
			log.Ctx(ctx).Warn().Err(err).Str(log.FieldRecordID, record.ID).Msg("failed to produce record event")
		}
	}

	now := s.now()
	out := &domain.Envelope{
		MsgType:   env.MsgType,
		Message:   env.Message,
		Username:  env.Username,
		MediaURL:  env.MediaURL,
		Timestamp: s.formatter.Format(now, now),
	}
	data, err := out.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode outbound envelope: %w", err)
	}

	s.hub.Broadcast(s.roomID, data, s.exclude(client))
	return nil
}

// HandleDisconnect removes the client from the shared room.
func (s *relayService) HandleDisconnect(ctx context.Context, client *hub.Client) error {
	s.hub.LeaveRoom(client, s.roomID)
	return nil
}

func (s *relayService) exclude(client *hub.Client) string {
	if s.includeSender {
		return ""
	}
	return client.ID
}
