package domain

import "time"

// PipelineStatus is the scheduler's view of one registered pipeline.
type PipelineStatus struct {
	// Name is the pipeline name.
	Name string

	// Running reports whether a run currently holds the pipeline lock.
	Running bool

	// NextRun is when the scheduler will next start the pipeline.
	NextRun time.Time

	// LastRun is when the pipeline last started, zero if never.
	LastRun time.Time

	// LastStatus is the status of the most recent completed run, empty
	// if the pipeline has not run yet.
	LastStatus RunStatus
}

// SchedulerStatus is the operational snapshot exposed to callers.
type SchedulerStatus struct {
	// Running reports whether the scheduler loop is active.
	Running bool

	// Pipelines holds one entry per registered pipeline.
	Pipelines []PipelineStatus
}
