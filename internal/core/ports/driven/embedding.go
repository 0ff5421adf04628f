package driven

import "context"

// EmbeddingService generates dense vector embeddings from text.
//
// Ingestion treats an embedding failure as fatal for that text; only
// the interactive query path may substitute a zero vector to keep a
// user-facing search alive.
//
// Implementations include Gemini (text-embedding-004,
// gemini-embedding-001) and OpenAI (text-embedding-3-*).
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 3072).
	// This is model-determined and must match the collection dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
