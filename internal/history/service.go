package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/internal/timefmt"
	"github.com/weiawesome/chat-relay/pkg/log"
)

const (
	// DefaultLimit is the page size when the caller asks for none.
	DefaultLimit = 50
	// MaxLimit caps a single history read.
	MaxLimit = 100
)

// Service serves recent chat history for display: the store is queried
// newest-first for bounded retrieval, the page is re-ordered oldest-first
// and display timestamps are computed against the query time.
type Service interface {
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type serviceImpl struct {
	store     Store
	cache     Cache // nil disables caching
	cacheTTL  time.Duration
	formatter *timefmt.Formatter
	sf        singleflight.Group
	now       func() time.Time
}

// NewService creates a history read service. cache may be nil.
func NewService(store Store, cache Cache, cacheTTL time.Duration, formatter *timefmt.Formatter) Service {
	return &serviceImpl{
		store:     store,
		cache:     cache,
		cacheTTL:  cacheTTL,
		formatter: formatter,
		now:       time.Now,
	}
}

// Recent returns up to limit records, oldest-first, with display
// timestamps anchored at the query time.
func (s *serviceImpl) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	records, err := s.fetch(ctx, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]domain.HistoryEntry, 0, len(records))
	// Store order is newest-first; walk backwards so the oldest renders
	// at the top.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		entries = append(entries, domain.HistoryEntry{
			Username:  rec.Username,
			Message:   rec.Message,
			MsgType:   rec.MsgType,
			MediaURL:  rec.MediaURL,
			Timestamp: s.formatter.Format(rec.CreatedAt, now),
		})
	}
	return entries, nil
}

func (s *serviceImpl) fetch(ctx context.Context, limit int) ([]domain.ChatRecord, error) {
	if s.cache == nil {
		return s.store.Recent(ctx, limit)
	}

	key := s.cache.BuildKey(limit)

	// Collapse concurrent identical reads into one store round-trip.
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Msg("cache get error")
		}

		records, err := s.store.Recent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read recent records: %w", err)
		}

		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.cache.Set(cacheCtx, key, records, s.cacheTTL); err != nil {
				log.L().Warn().Err(err).Msg("cache set error")
			}
		}()

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]domain.ChatRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return records, nil
}
