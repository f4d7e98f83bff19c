package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/chat-relay/internal/config"
	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/internal/history"
	"github.com/weiawesome/chat-relay/internal/hub"
	"github.com/weiawesome/chat-relay/internal/timefmt"
)

type fakeStore struct {
	mu      sync.Mutex
	records []*domain.ChatRecord
	err     error
}

func (f *fakeStore) Append(ctx context.Context, record *domain.ChatRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now()
	stored := *record
	f.records = append(f.records, &stored)
	return record.ID, nil
}

func (f *fakeStore) Recent(ctx context.Context, limit int) ([]domain.ChatRecord, error) {
	return nil, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeProducer struct {
	mu       sync.Mutex
	produced []*domain.ChatRecord
	err      error
}

func (f *fakeProducer) ProduceRecord(ctx context.Context, record *domain.ChatRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.produced = append(f.produced, record)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func wsConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     8,
	}
}

type fixture struct {
	hub     *hub.Hub
	store   *fakeStore
	service *relayService
}

func newFixture(t *testing.T, includeSender bool) *fixture {
	t.Helper()

	h := hub.NewHub(wsConfig())
	go h.Run()

	store := &fakeStore{}
	formatter, err := timefmt.New("UTC")
	require.NoError(t, err)

	svc := NewService(h, store, nil, formatter, config.RoomConfig{
		DefaultID:     "global",
		IncludeSender: includeSender,
	}).(*relayService)

	return &fixture{hub: h, store: store, service: svc}
}

func (f *fixture) connect(t *testing.T, id string) *hub.Client {
	t.Helper()
	c := hub.NewClient(id, f.hub, nil, wsConfig())
	require.NoError(t, f.service.HandleConnect(context.Background(), c))
	return c
}

func recvWithin(t *testing.T, c *hub.Client, d time.Duration) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(d):
		t.Fatalf("client %s received nothing within %v", c.ID, d)
		return nil
	}
}

func assertNoMessage(t *testing.T, c *hub.Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("client %s received unexpected message %q", c.ID, msg)
	default:
	}
}

func TestSignalingRelayedVerbatimWithoutPersistence(t *testing.T) {
	f := newFixture(t, true)
	sender := f.connect(t, "sender")
	peer := f.connect(t, "peer")

	raw := []byte(`{"msg_type":"rtc_offer","sdp":{"type":"offer","fingerprint":"aa:bb"},"target":"peer"}`)
	require.NoError(t, f.service.HandleMessage(context.Background(), sender, raw))

	// Every member, sender included, gets the exact original bytes.
	assert.Equal(t, raw, recvWithin(t, sender, time.Second))
	assert.Equal(t, raw, recvWithin(t, peer, time.Second))

	assert.Zero(t, f.store.count())
}

func TestChatPersistsThenBroadcastsToAllIncludingSender(t *testing.T) {
	f := newFixture(t, true)
	f.service.now = func() time.Time {
		return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	}
	sender := f.connect(t, "sender")
	peer := f.connect(t, "peer")

	raw := []byte(`{"msg_type":"text","message":"hello","username":"alice"}`)
	require.NoError(t, f.service.HandleMessage(context.Background(), sender, raw))

	require.Equal(t, 1, f.store.count())
	rec := f.store.records[0]
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, "hello", rec.Message)
	assert.Equal(t, domain.KindText, rec.MsgType)

	for _, c := range []*hub.Client{sender, peer} {
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(recvWithin(t, c, time.Second), &out))
		assert.Equal(t, "text", out["msg_type"])
		assert.Equal(t, "hello", out["message"])
		assert.Equal(t, "alice", out["username"])
		assert.Equal(t, "", out["media_url"])
		assert.Equal(t, "Today, 09:30:00", out["timestamp"])
	}
}

func TestPersistenceFailureDropsBroadcast(t *testing.T) {
	f := newFixture(t, true)
	f.store.err = fmt.Errorf("%w: ghost", history.ErrUnknownUser)
	sender := f.connect(t, "sender")
	peer := f.connect(t, "peer")

	raw := []byte(`{"msg_type":"text","message":"hello","username":"ghost"}`)
	err := f.service.HandleMessage(context.Background(), sender, raw)
	require.ErrorIs(t, err, ErrPersistenceFailed)

	// Only the sender hears about it.
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(recvWithin(t, sender, time.Second), &out))
	assert.Equal(t, domain.KindError, out["msg_type"])
	assert.Equal(t, domain.ErrCodeUnknownUser, out["code"])

	time.Sleep(10 * time.Millisecond)
	assertNoMessage(t, peer)
	assert.Zero(t, f.store.count())
}

func TestDecodeErrorAnsweredToSenderOnly(t *testing.T) {
	f := newFixture(t, true)
	sender := f.connect(t, "sender")
	peer := f.connect(t, "peer")

	err := f.service.HandleMessage(context.Background(), sender, []byte(`{"message":"no type"}`))
	require.ErrorIs(t, err, domain.ErrMissingType)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(recvWithin(t, sender, time.Second), &out))
	assert.Equal(t, domain.KindError, out["msg_type"])
	assert.Equal(t, domain.ErrCodeBadRequest, out["code"])

	time.Sleep(10 * time.Millisecond)
	assertNoMessage(t, peer)
}

func TestChatRequiresUsername(t *testing.T) {
	f := newFixture(t, true)
	sender := f.connect(t, "sender")

	err := f.service.HandleMessage(context.Background(), sender, []byte(`{"msg_type":"text","message":"anon"}`))
	require.Error(t, err)
	assert.Zero(t, f.store.count())
}

func TestExcludeSenderPolicy(t *testing.T) {
	f := newFixture(t, false)
	sender := f.connect(t, "sender")
	peer := f.connect(t, "peer")

	raw := []byte(`{"msg_type":"rtc_answer","sdp":"v=0"}`)
	require.NoError(t, f.service.HandleMessage(context.Background(), sender, raw))

	assert.Equal(t, raw, recvWithin(t, peer, time.Second))
	time.Sleep(10 * time.Millisecond)
	assertNoMessage(t, sender)
}

func TestProducerFailureDoesNotBlockBroadcast(t *testing.T) {
	f := newFixture(t, true)
	producer := &fakeProducer{err: errors.New("broker down")}
	f.service.producer = producer
	sender := f.connect(t, "sender")

	raw := []byte(`{"msg_type":"text","message":"hi","username":"alice"}`)
	require.NoError(t, f.service.HandleMessage(context.Background(), sender, raw))

	recvWithin(t, sender, time.Second)
	assert.Equal(t, 1, f.store.count())
}

func TestDisconnectLeavesRoomOnce(t *testing.T) {
	f := newFixture(t, true)
	sender := f.connect(t, "sender")

	require.NoError(t, f.service.HandleDisconnect(context.Background(), sender))
	assert.Zero(t, f.hub.RoomClientCount("global"))

	// Idempotent: a second disconnect is a no-op.
	require.NoError(t, f.service.HandleDisconnect(context.Background(), sender))
}
