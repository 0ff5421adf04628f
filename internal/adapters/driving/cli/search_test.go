package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	retrieval *domain.Retrieval
	err       error
	gotQuery  string
	gotOpts   domain.SearchOptions
}

func (m *mockRetrievalService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.Retrieval, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.retrieval, m.err
}

func setupSearchTest(service *mockRetrievalService) func() {
	old := retrievalService
	retrievalService = service
	return func() {
		retrievalService = old
		searchLimit, searchMinScore = 0, 0
		searchCollections = nil
		searchJSON = false
	}
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	service := &mockRetrievalService{retrieval: &domain.Retrieval{
		Results: []domain.SearchResult{
			{
				Collection: "procedures",
				ID:         "abc123",
				Score:      0.0321,
				Payload: domain.RecordPayload{
					Title:      "Prosedur Impor Sementara",
					SearchText: "SOP: Prosedur Impor Sementara",
					FileName:   "sop-impor.pdf",
				},
			},
		},
		Confident: true,
		Attempts:  1,
		Query:     "impor sementara",
	}}
	defer setupSearchTest(service)()

	out, err := execute(t, "search", "impor", "sementara")
	require.NoError(t, err)

	assert.Equal(t, "impor sementara", service.gotQuery, "args are joined into one query")
	assert.Contains(t, out, "Prosedur Impor Sementara")
	assert.Contains(t, out, "procedures")
	assert.NotContains(t, out, "Low-confidence")
}

func TestSearchCmd_LowConfidence(t *testing.T) {
	service := &mockRetrievalService{retrieval: &domain.Retrieval{
		Results:   []domain.SearchResult{{Collection: "cases", ID: "7", Score: 0.001}},
		Confident: false,
		Attempts:  2,
		Query:     "kode hs prosedur SOP dokumen",
	}}
	defer setupSearchTest(service)()

	out, err := execute(t, "search", "kode", "hs")
	require.NoError(t, err)
	assert.Contains(t, out, "Low-confidence")
	assert.Contains(t, out, "Query expanded to:")
}

func TestSearchCmd_Flags(t *testing.T) {
	service := &mockRetrievalService{retrieval: &domain.Retrieval{Confident: true, Attempts: 1}}
	defer setupSearchTest(service)()

	out, err := execute(t, "search", "query", "-n", "3", "--collections", "procedures,cases", "--min-score", "0.05")
	require.NoError(t, err)

	assert.Equal(t, 3, service.gotOpts.Limit)
	assert.Equal(t, []string{"procedures", "cases"}, service.gotOpts.Collections)
	assert.InDelta(t, 0.05, service.gotOpts.MinScore, 1e-9)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	service := &mockRetrievalService{retrieval: &domain.Retrieval{
		Results:   []domain.SearchResult{{Collection: "regulations", ID: "0101.21.00", Score: 0.04}},
		Confident: true,
		Attempts:  1,
	}}
	defer setupSearchTest(service)()

	out, err := execute(t, "search", "horses", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Collection": "regulations"`)
}

func TestSnippetOf(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	snippet := snippetOf(domain.RecordPayload{Content: string(long)})
	assert.Len(t, snippet, 163)

	assert.Equal(t, "from search text", snippetOf(domain.RecordPayload{
		SearchText: "from  search\n text",
		Content:    "ignored",
	}))
}
