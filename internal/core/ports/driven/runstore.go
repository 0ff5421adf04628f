package driven

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// RunStore persists run summaries and per-search diagnostics. It is the
// only durable state the core owns.
type RunStore interface {
	// RecordRun persists a completed run summary and returns its
	// assigned auto-increment id. Persisted summaries are immutable.
	RecordRun(ctx context.Context, summary *domain.RunSummary) (int64, error)

	// ListRuns returns persisted summaries matching the filter, newest
	// first.
	ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.RunSummary, error)

	// LastRun returns the most recent summary for a pipeline, or
	// (nil, nil) when the pipeline has never run.
	LastRun(ctx context.Context, pipeline string) (*domain.RunSummary, error)

	// PruneRuns keeps the most recent 'keep' summaries per pipeline and
	// deletes the rest.
	PruneRuns(ctx context.Context, keep int) error

	// RecordQuery persists a search diagnostic entry.
	RecordQuery(ctx context.Context, entry *domain.QueryLog) error

	// Close releases resources.
	Close() error
}
