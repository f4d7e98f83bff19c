package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/chat-relay/internal/config"
)

func newLocal(t *testing.T, publicURL string) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(config.LocalStorageConfig{BasePath: t.TempDir()}, publicURL)
	require.NoError(t, err)
	return s
}

func TestLocalSaveAndURL(t *testing.T) {
	s := newLocal(t, "")

	content := "fake png bytes"
	err := s.Save(context.Background(), "uploads/pic.png", strings.NewReader(content), int64(len(content)), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.basePath, "uploads", "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	url, err := s.URL(context.Background(), "uploads/pic.png")
	require.NoError(t, err)
	assert.Equal(t, "/media/uploads/pic.png", url)
}

func TestLocalURLWithPublicBase(t *testing.T) {
	s := newLocal(t, "https://cdn.example.com/")

	url, err := s.URL(context.Background(), "uploads/pic.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/pic.png", url)
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	s := newLocal(t, "")

	for _, key := range []string{"../escape.txt", "../../etc/passwd", "/absolute.txt"} {
		err := s.Save(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
		require.Error(t, err, "key %q", key)
	}
}

func TestLocalSaveOverwrites(t *testing.T) {
	s := newLocal(t, "")

	require.NoError(t, s.Save(context.Background(), "a.txt", strings.NewReader("one"), 3, "text/plain"))
	require.NoError(t, s.Save(context.Background(), "a.txt", strings.NewReader("two"), 3, "text/plain"))

	data, err := os.ReadFile(filepath.Join(s.basePath, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
