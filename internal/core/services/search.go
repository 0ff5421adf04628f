package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalService = (*RetrievalEngine)(nil)

// defaultMinScore is the fused-score threshold below which a result set
// is considered low confidence.
const defaultMinScore = 0.015

// queryExpansion is appended to the query on the low-confidence retry.
// The corpus is Indonesian compliance material, so the broadening terms
// are the document-type words users tend to omit.
const queryExpansion = " prosedur SOP dokumen"

// RetrievalEngine answers queries against the hybrid collections. Each
// collection is searched in parallel and results are merged by fused
// score.
type RetrievalEngine struct {
	store    driven.HybridStore
	embedder driven.EmbeddingService
	encoder  *SparseEncoder
	runs     driven.RunStore

	collections []string
}

// NewRetrievalEngine creates a retrieval engine over the given
// collections. The run store is optional and only used for query
// diagnostics.
func NewRetrievalEngine(
	store driven.HybridStore,
	embedder driven.EmbeddingService,
	runs driven.RunStore,
	collections []string,
) *RetrievalEngine {
	return &RetrievalEngine{
		store:       store,
		embedder:    embedder,
		encoder:     NewSparseEncoder(),
		runs:        runs,
		collections: collections,
	}
}

// Search embeds the query, fans out to the requested collections,
// merges by fused score and applies the confidence gate. A low top
// score triggers at most one expanded retry.
func (e *RetrievalEngine) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Retrieval, error) {
	logger.Section("Search")
	started := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	collections := opts.Collections
	if len(collections) == 0 {
		collections = e.collections
	}
	logger.Debug("Query: %q, collections: %v, limit: %d", query, collections, limit)

	retrieval := &domain.Retrieval{Query: query, Attempts: 1}

	results, err := e.searchOnce(ctx, query, collections, limit)
	if err != nil {
		return nil, err
	}

	// One broadened retry when the best score is below the gate. More
	// attempts never help: the expansion terms are already maximal.
	if topScore(results) < minScore {
		expanded := query + queryExpansion
		logger.Info("Low confidence (top score %.4f), retrying with %q", topScore(results), expanded)
		retrieval.Attempts = 2

		retried, err := e.searchOnce(ctx, expanded, collections, limit)
		if err == nil && topScore(retried) > topScore(results) {
			results = retried
			retrieval.Query = expanded
		} else if err != nil {
			logger.Warn("Expanded retry failed: %v", err)
		}
	}

	retrieval.Results = results
	retrieval.Confident = topScore(results) >= minScore

	e.logQuery(ctx, query, collections, retrieval, time.Since(started))
	return retrieval, nil
}

// searchOnce embeds the query and fans out one hybrid search per
// collection. A collection failure degrades rather than aborts: the
// remaining collections still answer.
func (e *RetrievalEngine) searchOnce(ctx context.Context, query string, collections []string, limit int) ([]domain.SearchResult, error) {
	dense := e.queryVector(ctx, query)
	sparse := e.encoder.Encode(query)

	type collectionHits struct {
		collection string
		hits       []domain.ScoredRecord
		err        error
	}

	out := make([]collectionHits, len(collections))
	var wg sync.WaitGroup
	for i, collection := range collections {
		wg.Add(1)
		go func(i int, collection string) {
			defer wg.Done()
			hits, err := e.store.QueryHybrid(ctx, collection, dense, sparse, limit)
			out[i] = collectionHits{collection: collection, hits: hits, err: err}
		}(i, collection)
	}
	wg.Wait()

	var results []domain.SearchResult
	var failures int
	for _, ch := range out {
		if ch.err != nil {
			failures++
			logger.Warn("Search in %s failed: %v", ch.collection, ch.err)
			continue
		}
		for _, hit := range ch.hits {
			results = append(results, domain.SearchResult{
				Collection: ch.collection,
				ID:         hit.ID,
				Score:      hit.Score,
				Payload:    hit.Payload,
			})
		}
	}
	if failures == len(collections) {
		return nil, fmt.Errorf("%w: all %d collections failed", domain.ErrStoreUnavailable, failures)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// queryVector embeds the query text. On failure it substitutes a zero
// vector so the sparse half of the search still answers. This
// substitution exists only on the query path: ingestion must never
// write zero vectors.
func (e *RetrievalEngine) queryVector(ctx context.Context, query string) []float32 {
	dense, err := e.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, degrading to sparse-only: %v", err)
		return make([]float32, e.embedder.Dimensions())
	}
	return dense
}

func (e *RetrievalEngine) logQuery(ctx context.Context, query string, collections []string, r *domain.Retrieval, elapsed time.Duration) {
	if e.runs == nil {
		return
	}
	entry := &domain.QueryLog{
		Query:       query,
		Collections: collections,
		TopScore:    topScore(r.Results),
		ResultCount: len(r.Results),
		Attempts:    r.Attempts,
		Duration:    elapsed,
		At:          time.Now(),
	}
	if err := e.runs.RecordQuery(ctx, entry); err != nil {
		logger.Debug("Failed to record query log: %v", err)
	}
}

func topScore(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Score
}
