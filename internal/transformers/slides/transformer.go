// Package slides transforms slide decks. Decks are converted to a
// page-per-slide PDF by an external converter, then each page is
// extracted as its own chunk.
package slides

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure Transformer implements the interface.
var _ driven.Transformer = (*Transformer)(nil)

var mimeByExt = map[string]string{
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Transformer converts slide decks to PDF and extracts one chunk per
// slide. When the conversion step fails it falls back to whole-file
// extraction; only a failure of both is an error for the file.
type Transformer struct {
	converter driven.SlideConverter
	extractor driven.ContentExtractor
}

// New creates a slide deck transformer.
func New(converter driven.SlideConverter, extractor driven.ContentExtractor) *Transformer {
	return &Transformer{converter: converter, extractor: extractor}
}

// Extensions returns the extensions this transformer handles.
func (t *Transformer) Extensions() []string {
	return []string{".ppt", ".pptx"}
}

// Pipelines returns nil: any pipeline may use this transformer.
func (t *Transformer) Pipelines() []string {
	return nil
}

// Priority returns the selection priority.
func (t *Transformer) Priority() int {
	return 60
}

// RecordID returns empty: identity is chunk-derived.
func (t *Transformer) RecordID(_ domain.RemoteFile) string {
	return ""
}

// Transform converts the deck to PDF and extracts per-slide chunks.
func (t *Transformer) Transform(ctx context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	pdfData, err := t.converter.ConvertToPDF(ctx, file.Name, data)
	if err != nil {
		logger.Warn("Conversion of %s failed, falling back to whole-file extraction: %v", file.Name, err)
		return t.wholeFile(ctx, file, data)
	}

	pages, err := t.extractor.ExtractPages(ctx, pdfData, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}
	return chunked(file, pages), nil
}

// wholeFile extracts the unconverted deck as a single chunk.
func (t *Transformer) wholeFile(ctx context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	pages, err := t.extractor.ExtractPages(ctx, data, mimeByExt[file.Ext()])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}
	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	result := &driven.TransformResult{
		Title:      titleFromName(file.Name),
		TotalPages: 1,
	}
	if text != "" {
		result.Chunks = []driven.Chunk{{Text: text, Page: 1, Index: 0}}
	}
	return result, nil
}

func chunked(file domain.RemoteFile, pages []string) *driven.TransformResult {
	result := &driven.TransformResult{
		Title:      titleFromName(file.Name),
		TotalPages: len(pages),
	}
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		result.Chunks = append(result.Chunks, driven.Chunk{Text: text, Page: i + 1, Index: 0})
	}
	return result
}

func titleFromName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
