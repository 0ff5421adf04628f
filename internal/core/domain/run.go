package domain

import "time"

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	// RunCompleted means the run finished; individual files may still
	// have errored.
	RunCompleted RunStatus = "completed"

	// RunFailed means the listing phase failed and nothing was processed.
	RunFailed RunStatus = "failed"
)

// RunItem records the outcome for a single file within a run.
type RunItem struct {
	// FileName is the remote file name.
	FileName string

	// RecordID is the derived record id, when known.
	RecordID string

	// Detail is a human-readable note: skip reason, error message, or
	// the number of chunks upserted.
	Detail string
}

// RunSummary is the record of one pipeline execution. It is appended to
// while the run progresses and persisted once at completion; persisted
// summaries are never mutated.
type RunSummary struct {
	// ID is the auto-increment id assigned by the run store on persistence.
	ID int64

	// Pipeline is the pipeline name.
	Pipeline string

	StartedAt   time.Time
	CompletedAt time.Time

	// TotalCandidates is the number of files that passed the listing
	// filter. It always equals len(Upserted)+len(Skipped)+len(Errors).
	TotalCandidates int

	Upserted []RunItem
	Skipped  []RunItem
	Errors   []RunItem

	Status RunStatus

	// DryRun marks a preview run: every step ran except the upsert.
	DryRun bool
}

// Consistent reports whether the per-item lists account for every candidate.
func (s *RunSummary) Consistent() bool {
	return s.TotalCandidates == len(s.Upserted)+len(s.Skipped)+len(s.Errors)
}

// RunFilter selects persisted run summaries.
type RunFilter struct {
	// Pipeline filters by pipeline name; empty matches all.
	Pipeline string

	// Status filters by run status; empty matches all.
	Status RunStatus

	// Limit and Offset paginate the result, newest first.
	Limit  int
	Offset int
}

// QueryLog is a persisted per-search diagnostic entry.
type QueryLog struct {
	ID          int64
	Query       string
	Collections []string
	TopScore    float64
	ResultCount int
	Attempts    int
	Duration    time.Duration
	At          time.Time
}
