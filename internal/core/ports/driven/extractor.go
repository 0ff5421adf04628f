package driven

import (
	"context"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// ContentExtractor turns document bytes into plain text via an external
// OCR/LLM service. It is best-effort: a failure is fatal only to the
// item being extracted, never to the batch.
type ContentExtractor interface {
	// ExtractPages returns the plain text of each page of the document,
	// in page order. Pages with no recognisable text come back as empty
	// strings and are skipped by the caller.
	ExtractPages(ctx context.Context, data []byte, mimeType string) ([]string, error)

	// ExtractFields parses the structured fields of a procedure
	// document (title, purpose, document number, ...).
	ExtractFields(ctx context.Context, data []byte, filename string) (*domain.ProcedureFields, error)
}

// SlideConverter converts a slide deck into a page-per-slide PDF,
// typically by shelling out to an office suite.
type SlideConverter interface {
	// ConvertToPDF converts the named deck; the returned bytes are a PDF
	// with one page per slide.
	ConvertToPDF(ctx context.Context, filename string, data []byte) ([]byte, error)
}
