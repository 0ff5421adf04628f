package driven

import (
	"context"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// HybridStore is the vector database boundary: named collections of
// records carrying a dense vector, a sparse lexical vector and a typed
// payload.
type HybridStore interface {
	// EnsureCollection creates the collection with the given dense
	// dimension if it does not exist. Idempotent.
	EnsureCollection(ctx context.Context, name string, denseDim int) error

	// Upsert writes records with full-replace semantics: a write with an
	// existing id replaces the stored record wholly.
	Upsert(ctx context.Context, collection string, records []domain.Record) error

	// GetLastModified returns the stored last-modified timestamp for a
	// record id, or (nil, nil) when the id is not present. This point
	// lookup drives the check-before-download skip decision.
	GetLastModified(ctx context.Context, collection, id string) (*time.Time, error)

	// FindLastModified looks up the stored timestamp by source file
	// name, for collections whose record ids are chunk-derived.
	// Returns (nil, nil) when no record references the file.
	FindLastModified(ctx context.Context, collection, fileName string) (*time.Time, error)

	// QueryHybrid retrieves limit*2 candidates from each of the dense
	// and sparse sub-indexes, fuses them by reciprocal rank and returns
	// the top limit. When the sparse sub-query fails it degrades to a
	// dense-only top-limit search.
	QueryHybrid(ctx context.Context, collection string, dense []float32, sparse domain.SparseVector, limit int) ([]domain.ScoredRecord, error)

	// Delete removes a record by id. Missing ids are not an error.
	Delete(ctx context.Context, collection, id string) error

	// Close releases resources.
	Close() error
}
