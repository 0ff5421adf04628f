package domain

import "time"

// Built-in pipeline names. Each pipeline owns one remote folder and one
// collection; names double as the trigger/CLI identifiers.
const (
	PipelineRegulations = "regulations"
	PipelineProcedures  = "procedures"
	PipelineCases       = "cases"
	PipelineDocuments   = "documents"
)

// DefaultBatchSize is the number of files processed per batch within a run.
const DefaultBatchSize = 50

// DefaultInterval is how often the scheduler runs each pipeline.
const DefaultInterval = 30 * time.Minute

// StaggerOffset is the delay added per pipeline to the initial run so
// that startup does not hit shared downstream services all at once.
const StaggerOffset = 2 * time.Minute

// Pipeline describes one content domain: its remote folder, target
// collection and processing parameters.
type Pipeline struct {
	// Name is the unique pipeline identifier (see the Pipeline* constants).
	Name string

	// FolderPath is the remote drive folder to list (e.g. "AI/SOP").
	FolderPath string

	// Collection is the hybrid store collection this pipeline writes to.
	Collection string

	// Extensions is the set of file extensions the pipeline accepts,
	// lower-case with leading dot (e.g. ".pdf").
	Extensions []string

	// VectorSize is the dense dimension the collection is created with.
	VectorSize int

	// BatchSize bounds how many files are handled per batch. Zero means
	// DefaultBatchSize.
	BatchSize int

	// Interval overrides the scheduler interval for this pipeline.
	// Zero means DefaultInterval.
	Interval time.Duration
}

// Accepts reports whether the pipeline processes files with the given
// lower-case extension.
func (p Pipeline) Accepts(ext string) bool {
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// EffectiveBatchSize returns BatchSize or the default.
func (p Pipeline) EffectiveBatchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}

// EffectiveInterval returns Interval or the default.
func (p Pipeline) EffectiveInterval() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return DefaultInterval
}
