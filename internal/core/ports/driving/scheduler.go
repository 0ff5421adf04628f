package driving

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// Scheduler runs pipelines on a periodic interval with staggered start
// offsets, guaranteeing non-overlapping executions per pipeline.
type Scheduler interface {
	// Start begins the periodic loop. Safe to call once; a second call
	// while running is a no-op.
	Start(ctx context.Context) error

	// Stop halts the loop and waits for in-flight runs to finish.
	Stop()

	// Trigger requests an immediate out-of-band run of one pipeline.
	// Returns domain.ErrUnknownPipeline for an unconfigured name and
	// domain.ErrRunInProgress when the pipeline is already running.
	Trigger(ctx context.Context, pipeline string) (*domain.RunSummary, error)

	// Status reports the scheduler and per-pipeline state.
	Status() domain.SchedulerStatus
}
