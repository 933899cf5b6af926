package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first := Record{
		CycleID:   "c1",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Outcome:   "success",
		Revision:  "abc123",
		Message:   "RELEASE 2024-05-01",
		Steps:     map[string]time.Duration{"clean_output": 10 * time.Millisecond, "run_generator": 900 * time.Millisecond},
		Pushes:    []PushResult{{Remote: "origin/main", Success: true}},
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, Record{CycleID: "c2", StartedAt: time.Now(), Outcome: "noop"}))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	require.Equal(t, "c2", records[0].CycleID)
	require.Equal(t, "noop", records[0].Outcome)

	got := records[1]
	require.Equal(t, "c1", got.CycleID)
	require.Equal(t, first.StartedAt, got.StartedAt)
	require.Equal(t, first.Duration, got.Duration)
	require.Equal(t, "abc123", got.Revision)
	require.Equal(t, 900*time.Millisecond, got.Steps["run_generator"])
	require.Len(t, got.Pushes, 1)
	require.True(t, got.Pushes[0].Success)
}

func TestRecent_Limit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Record{CycleID: "c", StartedAt: time.Now(), Outcome: "success"}))
	}
	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(context.Background(), Record{CycleID: "c", StartedAt: time.Now(), Outcome: "failed"}))

	// Reopen and read back.
	require.NoError(t, store.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
