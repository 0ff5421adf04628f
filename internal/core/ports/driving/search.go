package driving

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// RetrievalService answers natural-language queries against the indexed
// collections using hybrid dense plus sparse retrieval.
type RetrievalService interface {
	// Search embeds the query, fans out to the requested collections,
	// merges by fused score and applies the confidence gate. A low top
	// score triggers at most one expanded retry.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Retrieval, error)
}
