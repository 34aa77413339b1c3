package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoggerNewestFirst(t *testing.T) {
	log := NewMemoryLogger()
	ctx := context.Background()

	require.NoError(t, log.LogEvent(ctx, "ingest", map[string]any{"doc_id": "a"}))
	require.NoError(t, log.LogEvent(ctx, "query", map[string]any{"query": "q1"}))
	require.NoError(t, log.LogEvent(ctx, "delete", map[string]any{"doc_id": "a"}))

	events, err := log.Events(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "delete", events[0].Action)
	assert.Equal(t, "ingest", events[2].Action)

	limited, err := log.Events(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "delete", limited[0].Action)

	require.NoError(t, log.Clear(ctx))
	events, err = log.Events(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteLoggerRoundTrip(t *testing.T) {
	log, err := NewSQLiteLogger(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer log.Close()
	require.NoError(t, log.InitSchema())

	ctx := context.Background()
	require.NoError(t, log.LogEvent(ctx, "query", map[string]any{
		"query":            "lead limit in cosmetics",
		"chunks_retrieved": float64(5),
	}))

	events, err := log.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "query", events[0].Action)
	assert.Equal(t, "lead limit in cosmetics", events[0].Details["query"])
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())

	require.NoError(t, log.Clear(ctx))
	events, err = log.Events(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
