package driving

import (
	"context"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	// DryRun walks the full decision path, including downloads and
	// transforms, but performs no writes to the store.
	DryRun bool

	// Since filters the listing to files modified at or after this
	// instant. Zero means the start of the current calendar day.
	Since time.Time

	// Full disables the modification-time filter and considers every
	// file in the folder.
	Full bool
}

// PipelineRunner executes ingestion pipelines.
type PipelineRunner interface {
	// Run executes one pipeline end to end and returns its summary.
	// The summary is returned even when the run fails.
	Run(ctx context.Context, pipeline string, opts RunOptions) (*domain.RunSummary, error)

	// Pipelines returns the configured pipelines, in stagger order.
	Pipelines() []domain.Pipeline
}
