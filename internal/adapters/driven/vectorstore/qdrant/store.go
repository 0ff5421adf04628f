package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.HybridStore = (*Store)(nil)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// rrfK dampens high ranks in reciprocal rank fusion. 60 is the
	// conventional constant from the RRF paper.
	rrfK = 60
)

// Config holds the Qdrant connection settings.
type Config struct {
	// URL is the Qdrant server base URL (e.g. "http://localhost:6333").
	URL string

	// APIKey is sent as the api-key header when non-empty.
	APIKey string

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// Store talks to one Qdrant server holding the hybrid collections.
type Store struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Qdrant store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant config: url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Store{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// EnsureCollection creates the collection with named dense and sparse
// vectors if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context, name string, denseDim int) error {
	var list collectionListResponse
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &list); err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.Result.Collections {
		if c.Name == name {
			return nil
		}
	}

	req := createCollectionRequest{
		Vectors: map[string]vectorParams{
			denseVectorName: {Size: denseDim, Distance: "Cosine"},
		},
		SparseVectors: map[string]struct{}{
			sparseVectorName: {},
		},
	}
	if err := s.do(ctx, http.MethodPut, "/collections/"+name, req, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	logger.Info("Created collection %s (dense dim %d)", name, denseDim)
	return nil
}

// Upsert writes records with full-replace semantics.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]pointDoc, 0, len(records))
	for _, r := range records {
		vector := map[string]any{
			denseVectorName: r.Dense,
		}
		if !r.Sparse.IsZero() {
			vector[sparseVectorName] = sparseVectorDoc{
				Indices: r.Sparse.Indices,
				Values:  r.Sparse.Values,
			}
		}
		points = append(points, pointDoc{
			ID:      pointID(r.ID),
			Vector:  vector,
			Payload: toPayload(r.ID, r.Payload),
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	if err := s.do(ctx, http.MethodPut, path, upsertRequest{Points: points}, nil); err != nil {
		return fmt.Errorf("upsert %d point(s) into %s: %w", len(points), collection, err)
	}
	return nil
}

// GetLastModified returns the stored timestamp for a record id, or
// (nil, nil) when the id is not present.
func (s *Store) GetLastModified(ctx context.Context, collection, id string) (*time.Time, error) {
	req := retrieveRequest{IDs: []string{pointID(id)}, WithPayload: true}
	var resp pointsResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points", req, &resp); err != nil {
		return nil, fmt.Errorf("retrieve %s from %s: %w", id, collection, err)
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	return parseStoredTime(resp.Result[0].Payload.LastModified)
}

// FindLastModified looks up the stored timestamp by source file name,
// for collections whose point ids are chunk-derived.
func (s *Store) FindLastModified(ctx context.Context, collection, fileName string) (*time.Time, error) {
	var req scrollRequest
	var f matchFilter
	f.Key = "file_name"
	f.Match.Value = fileName
	req.Filter.Must = []matchFilter{f}
	req.Limit = 1
	req.WithPayload = true

	var resp scrollResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", req, &resp); err != nil {
		return nil, fmt.Errorf("scroll %s for %s: %w", collection, fileName, err)
	}
	if len(resp.Result.Points) == 0 {
		return nil, nil
	}
	return parseStoredTime(resp.Result.Points[0].Payload.LastModified)
}

// QueryHybrid retrieves limit*2 candidates from each sub-index, fuses
// them by reciprocal rank and returns the top limit. A failing or empty
// sparse signal degrades to a dense-only top-limit search.
func (s *Store) QueryHybrid(ctx context.Context, collection string, dense []float32, sparse domain.SparseVector, limit int) ([]domain.ScoredRecord, error) {
	prefetch := limit * 2

	denseHits, denseErr := s.search(ctx, collection, namedVector{Name: denseVectorName, Vector: dense}, prefetch)

	var sparseHits []scoredPointDoc
	sparseErr := error(nil)
	if sparse.IsZero() {
		sparseErr = fmt.Errorf("empty sparse query")
	} else {
		sparseHits, sparseErr = s.search(ctx, collection, namedSparseVector{
			Name:   sparseVectorName,
			Vector: sparseVectorDoc{Indices: sparse.Indices, Values: sparse.Values},
		}, prefetch)
	}

	switch {
	case denseErr != nil && sparseErr != nil:
		return nil, fmt.Errorf("hybrid query %s: dense: %w", collection, denseErr)
	case sparseErr != nil:
		logger.Debug("Sparse query in %s unavailable, dense only: %v", collection, sparseErr)
		return topRecords(denseHits, limit), nil
	case denseErr != nil:
		logger.Debug("Dense query in %s failed, sparse only: %v", collection, denseErr)
		return topRecords(sparseHits, limit), nil
	}

	fused := reciprocalRankFusion(denseHits, sparseHits, rrfK)
	return topRecords(fused, limit), nil
}

// Delete removes a record by id. Missing ids are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	req := deleteRequest{Points: []string{pointID(id)}}
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/delete?wait=true", req, nil); err != nil {
		return fmt.Errorf("delete %s from %s: %w", id, collection, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// search runs one sub-query against a named vector index.
func (s *Store) search(ctx context.Context, collection string, vector any, limit int) ([]scoredPointDoc, error) {
	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}
	var resp pointsResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// reciprocalRankFusion merges two ranked lists. Each hit scores the sum
// of 1/(k+rank+1) over the lists it appears in, so dense and sparse
// scores need not be on comparable scales.
func reciprocalRankFusion(list1, list2 []scoredPointDoc, k int) []scoredPointDoc {
	scores := make(map[string]float64)
	byID := make(map[string]scoredPointDoc)

	for rank, p := range list1 {
		scores[p.ID] += 1.0 / float64(k+rank+1)
		byID[p.ID] = p
	}
	for rank, p := range list2 {
		scores[p.ID] += 1.0 / float64(k+rank+1)
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}

	fused := make([]scoredPointDoc, 0, len(byID))
	for id, p := range byID {
		p.Score = scores[id]
		fused = append(fused, p)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// topRecords converts wire hits to domain records, truncated to limit.
func topRecords(hits []scoredPointDoc, limit int) []domain.ScoredRecord {
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]domain.ScoredRecord, 0, len(hits))
	for _, h := range hits {
		id := h.Payload.RecordID
		if id == "" {
			id = h.ID
		}
		out = append(out, domain.ScoredRecord{
			ID:      id,
			Score:   h.Score,
			Payload: fromPayload(h.Payload),
		})
	}
	return out
}

// do performs one JSON request against the Qdrant API.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(msg)), "dimension") {
			return fmt.Errorf("%w: qdrant status %d: %s", domain.ErrDimensionMismatch, resp.StatusCode, string(msg))
		}
		return fmt.Errorf("qdrant status %d: %s", resp.StatusCode, string(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseStoredTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return &ts, nil
}
