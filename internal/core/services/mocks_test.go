package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
)

// mockSource implements driven.SourceClient.
type mockSource struct {
	files     []domain.RemoteFile
	listErr   error
	content   map[string][]byte
	getErr    error
	downloads []string
}

func (m *mockSource) ListFolder(_ context.Context, _ string) ([]domain.RemoteFile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.files, nil
}

func (m *mockSource) GetContent(_ context.Context, fileID string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.downloads = append(m.downloads, fileID)
	if m.content == nil {
		return []byte("data"), nil
	}
	return m.content[fileID], nil
}

// mockStore implements driven.HybridStore.
type mockStore struct {
	mu           sync.Mutex
	ensured      map[string]int
	upserts      map[string][]domain.Record
	byID         map[string]time.Time
	byName       map[string]time.Time
	upsertErr    error
	lookupErr    error
	queryHits    map[string][]domain.ScoredRecord
	queryErr     map[string]error
	queryQueries int
}

func newMockStore() *mockStore {
	return &mockStore{
		ensured: make(map[string]int),
		upserts: make(map[string][]domain.Record),
		byID:    make(map[string]time.Time),
		byName:  make(map[string]time.Time),
	}
}

func (m *mockStore) EnsureCollection(_ context.Context, name string, denseDim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured[name] = denseDim
	return nil
}

func (m *mockStore) Upsert(_ context.Context, collection string, records []domain.Record) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts[collection] = append(m.upserts[collection], records...)
	return nil
}

func (m *mockStore) GetLastModified(_ context.Context, _, id string) (*time.Time, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts, ok := m.byID[id]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (m *mockStore) FindLastModified(_ context.Context, _, fileName string) (*time.Time, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts, ok := m.byName[fileName]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (m *mockStore) QueryHybrid(_ context.Context, collection string, _ []float32, _ domain.SparseVector, _ int) ([]domain.ScoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryQueries++
	if err, ok := m.queryErr[collection]; ok {
		return nil, err
	}
	return m.queryHits[collection], nil
}

func (m *mockStore) Delete(_ context.Context, _, _ string) error { return nil }
func (m *mockStore) Close() error                                { return nil }

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	dims  int
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	v := make([]float32, m.dims)
	v[0] = float32(len(text))
	return v, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embedding" }
func (m *mockEmbedder) Close() error      { return nil }

// mockTransformer implements driven.Transformer with a fixed result.
type mockTransformer struct {
	exts     []string
	recordID func(domain.RemoteFile) string
	result   *driven.TransformResult
	err      error
}

func (m *mockTransformer) Extensions() []string { return m.exts }
func (m *mockTransformer) Pipelines() []string  { return nil }
func (m *mockTransformer) Priority() int        { return 50 }

func (m *mockTransformer) RecordID(file domain.RemoteFile) string {
	if m.recordID == nil {
		return ""
	}
	return m.recordID(file)
}

func (m *mockTransformer) Transform(_ context.Context, file domain.RemoteFile, _ []byte) (*driven.TransformResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driven.TransformResult{
		RecordID:   m.RecordID(file),
		Title:      file.Name,
		SearchText: "content of " + file.Name,
		Content:    "content of " + file.Name,
	}, nil
}

// mockRegistry implements driven.TransformerRegistry, resolving every
// file to one transformer.
type mockRegistry struct {
	transformer driven.Transformer
	err         error
}

func (m *mockRegistry) Resolve(_ string, _ domain.RemoteFile) (driven.Transformer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.transformer, nil
}

func (m *mockRegistry) Register(driven.Transformer)   {}
func (m *mockRegistry) SupportedExtensions() []string { return nil }

// mockRunStore implements driven.RunStore.
type mockRunStore struct {
	mu      sync.Mutex
	runs    []domain.RunSummary
	queries []domain.QueryLog
	pruned  int
}

func (m *mockRunStore) RecordRun(_ context.Context, summary *domain.RunSummary) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *summary)
	return int64(len(m.runs)), nil
}

func (m *mockRunStore) ListRuns(_ context.Context, _ domain.RunFilter) ([]domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RunSummary(nil), m.runs...), nil
}

func (m *mockRunStore) LastRun(_ context.Context, pipeline string) (*domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Pipeline == pipeline {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, nil
}

func (m *mockRunStore) PruneRuns(_ context.Context, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
	return nil
}

func (m *mockRunStore) RecordQuery(_ context.Context, entry *domain.QueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, *entry)
	return nil
}

func (m *mockRunStore) Close() error { return nil }

// mockRunner implements driving.PipelineRunner for scheduler tests.
type mockRunner struct {
	mu        sync.Mutex
	pipelines []domain.Pipeline
	runErr    error
	delay     time.Duration
	ran       []string
}

func (m *mockRunner) Pipelines() []domain.Pipeline { return m.pipelines }

func (m *mockRunner) Run(_ context.Context, pipeline string, _ driving.RunOptions) (*domain.RunSummary, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.ran = append(m.ran, pipeline)
	m.mu.Unlock()
	if m.runErr != nil {
		return &domain.RunSummary{Pipeline: pipeline, Status: domain.RunFailed}, m.runErr
	}
	return &domain.RunSummary{Pipeline: pipeline, Status: domain.RunCompleted}, nil
}

func (m *mockRunner) runCount(pipeline string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.ran {
		if p == pipeline {
			n++
		}
	}
	return n
}

var errBoom = fmt.Errorf("boom")
