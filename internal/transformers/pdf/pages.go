package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Pages implements the interface.
var _ driven.Transformer = (*Pages)(nil)

// Pages transforms generic PDFs into one chunk per page so results can
// cite pages. Record ids are chunk-derived, so change detection uses
// the file-name lookup.
type Pages struct {
	extractor driven.ContentExtractor
}

// NewPages creates a page-chunking PDF transformer.
func NewPages(extractor driven.ContentExtractor) *Pages {
	return &Pages{extractor: extractor}
}

// Extensions returns the extensions this transformer handles.
func (t *Pages) Extensions() []string {
	return []string{".pdf"}
}

// Pipelines returns nil: any pipeline may use this transformer.
func (t *Pages) Pipelines() []string {
	return nil
}

// Priority returns the selection priority.
func (t *Pages) Priority() int {
	return 60
}

// RecordID returns empty: identity is chunk-derived.
func (t *Pages) RecordID(_ domain.RemoteFile) string {
	return ""
}

// Transform extracts every page and emits one chunk per non-empty page.
// An empty page is dropped, not an error.
func (t *Pages) Transform(ctx context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	pages, err := t.extractor.ExtractPages(ctx, data, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}
	return pagesResult(file, pages), nil
}

// pagesResult builds a chunked transform result from per-page texts.
// Shared with the slides transformer, which produces the same shape
// after conversion.
func pagesResult(file domain.RemoteFile, pages []string) *driven.TransformResult {
	result := &driven.TransformResult{
		Title:      titleFromName(file.Name),
		TotalPages: len(pages),
	}
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		result.Chunks = append(result.Chunks, driven.Chunk{
			Text:  text,
			Page:  i + 1,
			Index: 0,
		})
	}
	return result
}

func titleFromName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
