// Package gemini provides an embedding service adapter using the
// Google Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "text-embedding-004"
	DefaultTimeout = 60 * time.Second
)

// Model dimensions for Gemini embedding models.
var modelDimensions = map[string]int{
	"text-embedding-004":   768,
	"gemini-embedding-001": 3072,
}

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public endpoint).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	Dimensions int
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type contentDoc struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func newContent(text string) contentDoc {
	var c contentDoc
	c.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	return c
}

type embedRequest struct {
	Content contentDoc `json:"content"`
}

type batchEmbedRequest struct {
	Requests []struct {
		Model   string     `json:"model"`
		Content contentDoc `json:"content"`
	} `json:"requests"`
}

type embeddingValues struct {
	Values []float32 `json:"values"`
}

type embedResponse struct {
	Embedding embeddingValues `json:"embedding"`
	Error     *apiError       `json:"error,omitempty"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
	Error      *apiError         `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 768
		}
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", s.baseURL, s.model)
	if err := s.post(ctx, endpoint, embedRequest{Content: newContent(text)}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, resp.Error.Message)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", domain.ErrEmbeddingUnavailable)
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var req batchEmbedRequest
	for _, text := range texts {
		req.Requests = append(req.Requests, struct {
			Model   string     `json:"model"`
			Content contentDoc `json:"content"`
		}{
			Model:   "models/" + s.model,
			Content: newContent(text),
		})
	}

	var resp batchEmbedResponse
	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", s.baseURL, s.model)
	if err := s.post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, resp.Error.Message)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) post(ctx context.Context, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, string(raw))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}
