package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(pipeline string, started time.Time) *domain.RunSummary {
	return &domain.RunSummary{
		Pipeline:        pipeline,
		StartedAt:       started,
		CompletedAt:     started.Add(30 * time.Second),
		TotalCandidates: 3,
		Upserted:        []domain.RunItem{{FileName: "a.pdf", RecordID: "id-a", Detail: "2 chunk(s)"}},
		Skipped:         []domain.RunItem{{FileName: "b.pdf", Detail: "unchanged"}},
		Errors:          []domain.RunItem{{FileName: "c.pdf", Detail: "download failed"}},
		Status:          domain.RunCompleted,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	id, err := store.RecordRun(ctx, sampleRun("procedures", base))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = store.RecordRun(ctx, sampleRun("procedures", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = store.RecordRun(ctx, sampleRun("regulations", base.Add(2*time.Hour)))
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, domain.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "regulations", runs[0].Pipeline)
		assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	})

	t.Run("round trips items", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, domain.RunFilter{Pipeline: "regulations"})
		require.NoError(t, err)
		require.Len(t, runs, 1)

		run := runs[0]
		assert.Equal(t, 3, run.TotalCandidates)
		assert.True(t, run.Consistent())
		require.Len(t, run.Upserted, 1)
		assert.Equal(t, "a.pdf", run.Upserted[0].FileName)
		assert.Equal(t, "id-a", run.Upserted[0].RecordID)
		assert.Equal(t, "unchanged", run.Skipped[0].Detail)
		assert.Equal(t, domain.RunCompleted, run.Status)
		assert.Equal(t, base.Add(2*time.Hour), run.StartedAt)
	})

	t.Run("pipeline filter", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, domain.RunFilter{Pipeline: "procedures"})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("status filter", func(t *testing.T) {
		failed := sampleRun("procedures", base.Add(3*time.Hour))
		failed.Status = domain.RunFailed
		_, err := store.RecordRun(ctx, failed)
		require.NoError(t, err)

		runs, err := store.ListRuns(ctx, domain.RunFilter{Status: domain.RunFailed})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunFailed, runs[0].Status)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := store.ListRuns(ctx, domain.RunFilter{Pipeline: "procedures", Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, base.Add(time.Hour), page[0].StartedAt)
	})

	t.Run("nil summary rejected", func(t *testing.T) {
		_, err := store.RecordRun(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLastRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("never ran", func(t *testing.T) {
		run, err := store.LastRun(ctx, "cases")
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("most recent", func(t *testing.T) {
		base := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
		_, err := store.RecordRun(ctx, sampleRun("cases", base))
		require.NoError(t, err)
		_, err = store.RecordRun(ctx, sampleRun("cases", base.Add(time.Hour)))
		require.NoError(t, err)

		run, err := store.LastRun(ctx, "cases")
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, base.Add(time.Hour), run.StartedAt)
	})
}

func TestPruneRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := store.RecordRun(ctx, sampleRun("procedures", base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, err := store.RecordRun(ctx, sampleRun("regulations", base))
	require.NoError(t, err)

	require.NoError(t, store.PruneRuns(ctx, 2))

	procedures, err := store.ListRuns(ctx, domain.RunFilter{Pipeline: "procedures"})
	require.NoError(t, err)
	require.Len(t, procedures, 2)
	assert.Equal(t, base.Add(4*time.Hour), procedures[0].StartedAt)

	// Pruning is per pipeline, the single regulations run survives.
	regulations, err := store.ListRuns(ctx, domain.RunFilter{Pipeline: "regulations"})
	require.NoError(t, err)
	assert.Len(t, regulations, 1)
}

func TestQueryLogs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &domain.QueryLog{
		Query:       "prosedur impor sementara",
		Collections: []string{"procedures", "regulations"},
		TopScore:    0.031,
		ResultCount: 5,
		Attempts:    2,
		Duration:    1200 * time.Millisecond,
		At:          time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.RecordQuery(ctx, entry))

	entries, err := store.ListQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "prosedur impor sementara", got.Query)
	assert.Equal(t, []string{"procedures", "regulations"}, got.Collections)
	assert.InDelta(t, 0.031, got.TopScore, 1e-9)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, 1200*time.Millisecond, got.Duration)

	t.Run("nil entry rejected", func(t *testing.T) {
		assert.ErrorIs(t, store.RecordQuery(ctx, nil), domain.ErrInvalidInput)
	})
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening the same database must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
