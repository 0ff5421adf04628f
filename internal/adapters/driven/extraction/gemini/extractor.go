// Package gemini implements the content extraction boundary using the
// Gemini generateContent API: OCR of document bytes into page-delimited
// plain text, and structured field extraction for procedure documents.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// pageBreak is the marker the model is instructed to emit between
// pages. ExtractPages splits on it.
const pageBreak = "=== PAGE BREAK ==="

const pagesPrompt = "Extract all text from this document. " +
	"Output the text of each page in reading order. " +
	"Separate consecutive pages with a line containing exactly: " + pageBreak + "\n" +
	"Output nothing but the extracted text and the separators."

const fieldsPrompt = `Extract the document metadata from this procedure document.
Respond with a single JSON object and nothing else, using exactly these keys:
{"title": "", "purpose": "", "description": "", "references": "", "date": "", "doc_no": "", "revision": "", "doc_type": ""}
Use an empty string for any field not present in the document.`

// Config holds configuration for the Gemini extraction service.
type Config struct {
	// APIKey is the Google AI Studio API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public endpoint).
	BaseURL string

	// Model is the generative model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s, OCR of large
	// documents is slow).
	Timeout time.Duration
}

// Extractor performs OCR and structured extraction via Gemini.
type Extractor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// New creates a Gemini extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini extractor: API key is required")
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
	return &Extractor{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// ExtractPages OCRs the document and returns one string per page, in
// order. Pages the model leaves empty are returned as empty strings.
func (e *Extractor) ExtractPages(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	text, err := e.generate(ctx, data, mimeType, pagesPrompt)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(text, pageBreak)
	pages := make([]string, 0, len(parts))
	for _, p := range parts {
		pages = append(pages, strings.TrimSpace(p))
	}
	return pages, nil
}

// ExtractFields parses the structured metadata of a procedure document.
func (e *Extractor) ExtractFields(ctx context.Context, data []byte, filename string) (*domain.ProcedureFields, error) {
	text, err := e.generate(ctx, data, "application/pdf", fieldsPrompt)
	if err != nil {
		return nil, err
	}

	var fields domain.ProcedureFields
	if err := json.Unmarshal([]byte(stripFences(text)), &fields); err != nil {
		return nil, fmt.Errorf("%w: parse fields of %s: %v", domain.ErrExtractionFailed, filename, err)
	}
	return &fields, nil
}

// stripFences removes a markdown code fence the model sometimes wraps
// JSON output in despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

type generateRequest struct {
	Contents []struct {
		Parts []partDoc `json:"parts"`
	} `json:"contents"`
}

type partDoc struct {
	Text       string         `json:"text,omitempty"`
	InlineData *inlineDataDoc `json:"inline_data,omitempty"`
}

type inlineDataDoc struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generate sends one document plus prompt and returns the concatenated
// text of the first candidate.
func (e *Extractor) generate(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	var req generateRequest
	req.Contents = []struct {
		Parts []partDoc `json:"parts"`
	}{{
		Parts: []partDoc{
			{InlineData: &inlineDataDoc{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
			{Text: prompt},
		},
	}}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", e.baseURL, e.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", e.apiKey)

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", domain.ErrRateLimited, string(raw))
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrExtractionFailed, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", domain.ErrExtractionFailed)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
