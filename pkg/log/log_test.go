package log

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalLoggerChainsDirectly(t *testing.T) {
	// The accessors must support chained calls without assigning to a
	// local first.
	L().Debug().Str("key", "value").Msg("chained global")
	Ctx(context.Background()).Warn().Msg("chained from empty context")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	l := Ctx(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, L().GetLevel(), l.GetLevel())
}

func TestCtxReturnsStoredLogger(t *testing.T) {
	child := New(Config{Level: "error"})
	ctx := WithLogger(context.Background(), child)

	l := Ctx(ctx)
	l.Info().Msg("filtered by level")
	assert.Equal(t, zerolog.ErrorLevel, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
}
