package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// mockRunStore implements driven.RunStore for testing.
type mockRunStore struct {
	runs      []domain.RunSummary
	gotFilter domain.RunFilter
}

func (m *mockRunStore) RecordRun(_ context.Context, _ *domain.RunSummary) (int64, error) {
	return 0, nil
}

func (m *mockRunStore) ListRuns(_ context.Context, filter domain.RunFilter) ([]domain.RunSummary, error) {
	m.gotFilter = filter
	return m.runs, nil
}

func (m *mockRunStore) LastRun(_ context.Context, pipeline string) (*domain.RunSummary, error) {
	for i := range m.runs {
		if m.runs[i].Pipeline == pipeline {
			return &m.runs[i], nil
		}
	}
	return nil, nil
}

func (m *mockRunStore) PruneRuns(_ context.Context, _ int) error { return nil }

func (m *mockRunStore) RecordQuery(_ context.Context, _ *domain.QueryLog) error { return nil }

func (m *mockRunStore) Close() error { return nil }

func setupRunsTest(store *mockRunStore) func() {
	old := runStore
	runStore = store
	return func() {
		runStore = old
		runsPipeline, runsStatus = "", ""
		runsLimit, runsOffset = 20, 0
	}
}

func TestRunsCmd_ListsRuns(t *testing.T) {
	store := &mockRunStore{runs: []domain.RunSummary{{
		ID:              7,
		Pipeline:        "procedures",
		StartedAt:       time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
		TotalCandidates: 2,
		Upserted:        []domain.RunItem{{FileName: "a.pdf"}},
		Errors:          []domain.RunItem{{FileName: "c.pdf", Detail: "boom"}},
		Status:          domain.RunCompleted,
	}}}
	defer setupRunsTest(store)()

	out, err := execute(t, "runs", "--pipeline", "procedures", "--status", "completed", "-n", "5")
	require.NoError(t, err)

	assert.Equal(t, "procedures", store.gotFilter.Pipeline)
	assert.Equal(t, domain.RunCompleted, store.gotFilter.Status)
	assert.Equal(t, 5, store.gotFilter.Limit)
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "1 upserted")
}

func TestRunsCmd_Empty(t *testing.T) {
	store := &mockRunStore{}
	defer setupRunsTest(store)()

	out, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "driftsync version")
}
