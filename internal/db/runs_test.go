package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(DefaultConfig(filepath.Join(t.TempDir(), "webhook.db")))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func TestCreateAndListRuns(t *testing.T) {
	repo := NewRunRepository(testDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	first := &Run{
		ID: "run-1", Ref: "refs/heads/main", HeadCommit: "abc",
		Success: true, Message: "all containers synchronized",
		StartedAt: base, FinishedAt: base.Add(2 * time.Second),
	}
	second := &Run{
		ID: "run-2", Ref: "refs/heads/main", HeadCommit: "def",
		Success: false, Container: "staging", Message: "pull failed",
		StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second),
	}

	require.NoError(t, repo.CreateRun(ctx, first))
	require.NoError(t, repo.CreateRun(ctx, second))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "staging", runs[0].Container)
	assert.False(t, runs[0].Success)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.True(t, runs[1].Success)
}

func TestListRunsHonorsLimit(t *testing.T) {
	repo := NewRunRepository(testDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := &Run{
			ID:         string(rune('a' + i)),
			Success:    true,
			Message:    "ok",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	runs, err := repo.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	repo := NewRunRepository(testDB(t))
	ctx := context.Background()

	run := &Run{ID: "run-1", Success: true, Message: "ok", StartedAt: time.Now(), FinishedAt: time.Now()}
	require.NoError(t, repo.CreateRun(ctx, run))
	assert.Error(t, repo.CreateRun(ctx, run))
}
