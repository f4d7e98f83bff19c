package storage

import (
	"context"
	"io"
)

// Storage stores uploaded media and resolves the opaque URL carried in
// media envelopes. The relay core never interprets these URLs.
type Storage interface {
	// Save stores content under key. size is the expected content size
	// (-1 if unknown).
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// URL returns a URL for accessing the stored content.
	URL(ctx context.Context, key string) (string, error)
}
