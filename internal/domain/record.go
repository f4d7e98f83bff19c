package domain

import "time"

// ChatRecord is a persisted chat message. Records are created only for
// non-signaling kinds and are immutable once written.
type ChatRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	MsgType   string    `json:"msg_type"`
	MediaURL  string    `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is a chat record prepared for display, oldest-first, with
// the calendar-relative timestamp computed at query time.
type HistoryEntry struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	MsgType   string `json:"msg_type"`
	MediaURL  string `json:"media_url"`
	Timestamp string `json:"timestamp"`
}

// APIResponse is the REST response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
