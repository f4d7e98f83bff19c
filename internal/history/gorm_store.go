package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/chat-relay/internal/domain"
	"github.com/weiawesome/chat-relay/internal/users"
)

// MessageModel is the GORM mapping for chat records.
type MessageModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index;not null"`
	Username  string    `gorm:"size:50;not null"`
	Message   string    `gorm:"type:text"`
	MsgType   string    `gorm:"size:32;not null"`
	MediaURL  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName sets the table name.
func (MessageModel) TableName() string {
	return "chat_messages"
}

// GormStore implements Store on a relational database. Usernames are
// resolved against the users table on every append; a record for an
// unregistered username is rejected, never written.
type GormStore struct {
	db    *gorm.DB
	users users.Repository
}

// NewGormStore creates a GORM-backed history store.
func NewGormStore(db *gorm.DB, userRepo users.Repository) *GormStore {
	return &GormStore{db: db, users: userRepo}
}

// Append persists a chat record.
func (s *GormStore) Append(ctx context.Context, record *domain.ChatRecord) (string, error) {
	user, err := s.users.GetByUsername(ctx, record.Username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return "", fmt.Errorf("%w: %s", ErrUnknownUser, record.Username)
		}
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}

	model := &MessageModel{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Username: user.Username,
		Message:  record.Message,
		MsgType:  record.MsgType,
		MediaURL: record.MediaURL,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("failed to save record: %w", err)
	}

	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	return model.ID, nil
}

// Recent returns up to limit records, newest-first.
func (s *GormStore) Recent(ctx context.Context, limit int) ([]domain.ChatRecord, error) {
	var models []MessageModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]domain.ChatRecord, 0, len(models))
	for _, m := range models {
		records = append(records, domain.ChatRecord{
			ID:        m.ID,
			Username:  m.Username,
			Message:   m.Message,
			MsgType:   m.MsgType,
			MediaURL:  m.MediaURL,
			CreatedAt: m.CreatedAt,
		})
	}
	return records, nil
}
