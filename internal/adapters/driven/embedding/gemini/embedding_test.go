package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

func newTestService(t *testing.T, handler http.Handler) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-004", svc.ModelName())
		assert.Equal(t, 768, svc.Dimensions())
	})

	t.Run("known model dimension", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "gemini-embedding-001"})
		require.NoError(t, err)
		assert.Equal(t, 3072, svc.Dimensions())
	})

	t.Run("dimension override", func(t *testing.T) {
		svc, err := NewEmbeddingService(Config{APIKey: "k", Dimensions: 512})
		require.NoError(t, err)
		assert.Equal(t, 512, svc.Dimensions())
	})
}

func TestEmbed(t *testing.T) {
	t.Run("returns vector", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Content.Parts, 1)
			assert.Equal(t, "prosedur impor", req.Content.Parts[0].Text)

			fmt.Fprint(w, `{"embedding": {"values": [0.1, 0.2, 0.3]}}`)
		}))

		vec, err := svc.Embed(context.Background(), "prosedur impor")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("empty embedding is an error", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"embedding": {"values": []}}`)
		}))

		_, err := svc.Embed(context.Background(), "text")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("rate limit surfaces as typed error", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))

		_, err := svc.Embed(context.Background(), "text")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})
}

func TestEmbedBatch(t *testing.T) {
	t.Run("index ordered results", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/text-embedding-004:batchEmbedContents", r.URL.Path)

			var req batchEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Requests, 2)
			assert.Equal(t, "models/text-embedding-004", req.Requests[0].Model)

			fmt.Fprint(w, `{"embeddings": [{"values": [1]}, {"values": [2]}]}`)
		}))

		vecs, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Equal(t, float32(1), vecs[0][0])
		assert.Equal(t, float32(2), vecs[1][0])
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"embeddings": [{"values": [1]}]}`)
		}))

		_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
		assert.Error(t, err)
	})

	t.Run("empty input short circuits", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("no request expected")
		}))

		vecs, err := svc.EmbedBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
	})
}
