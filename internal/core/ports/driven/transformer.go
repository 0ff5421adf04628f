package driven

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// Transformer converts the raw bytes of one supported format into text,
// structured fields and page-bounded chunks. Each transformer handles a
// closed set of file extensions, optionally restricted to specific
// pipelines.
type Transformer interface {
	// Extensions returns the lower-case extensions this transformer
	// handles (with leading dot).
	Extensions() []string

	// Pipelines returns the pipeline names this transformer is
	// specialised for. Empty means any pipeline.
	Pipelines() []string

	// Priority orders selection when several transformers match.
	// Pipeline-specific transformers should return 90-100, generic
	// format transformers 50-89.
	Priority() int

	// RecordID derives the stable record id for a file before download,
	// so the skip decision can run on metadata alone. An empty return
	// means identity is chunk-derived and change detection falls back to
	// a file-name lookup.
	RecordID(file domain.RemoteFile) string

	// Transform extracts the file into a result ready for embedding.
	Transform(ctx context.Context, file domain.RemoteFile, data []byte) (*TransformResult, error)
}

// Chunk is one page-bounded unit of extracted text. For multi-page
// sources one chunk is one page, deliberately not split further so that
// results cite pages.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Page is the 1-based page number the chunk came from.
	Page int

	// Index is the chunk ordinal within the page (0 unless a page is
	// ever split).
	Index int
}

// TransformResult is the output of a transformation.
type TransformResult struct {
	// RecordID is the derived id, matching Transformer.RecordID when
	// that is non-empty.
	RecordID string

	// Title is the human-readable title for the payload.
	Title string

	// Code is the domain identifier of a structured record (regulation
	// article number, case number), when the format carries one.
	Code string

	// SearchText is the projected text to embed and to build the sparse
	// vector from, for single-record formats.
	SearchText string

	// Content is the full extracted text.
	Content string

	// Labels is the classification hierarchy for structured records.
	Labels []string

	// Fields carries parsed procedure fields, when applicable.
	Fields *domain.ProcedureFields

	// Chunks holds the page-bounded chunks for multi-page sources.
	// Empty for single-record formats.
	Chunks []Chunk

	// TotalPages is the page count of the source, when known.
	TotalPages int
}

// TransformerRegistry selects the appropriate transformer for a file.
type TransformerRegistry interface {
	// Resolve returns the best matching transformer for the file within
	// the given pipeline, or domain.ErrUnsupportedFormat.
	Resolve(pipeline string, file domain.RemoteFile) (Transformer, error)

	// Register adds a transformer to the registry.
	Register(t Transformer)

	// SupportedExtensions returns all extensions that can be transformed.
	SupportedExtensions() []string
}
