package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownPipeline indicates a pipeline name that is not registered.
	ErrUnknownPipeline = errors.New("unknown pipeline")

	// ErrRunInProgress indicates a pipeline run is already executing.
	// Callers treat this as a deliberate skip, not a failure.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrUnsupportedFormat indicates no transformer accepts the file.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDimensionMismatch indicates an embedding size that does not match
	// the dimension the collection was created with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the hybrid vector store is not configured.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrExtractionFailed indicates content extraction produced no usable text.
	ErrExtractionFailed = errors.New("extraction failed")
)
