// Package pdf transforms PDF files: procedure documents are parsed
// into structured fields producing one record, generic documents are
// extracted page by page into chunks.
package pdf

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Procedure implements the interface.
var _ driven.Transformer = (*Procedure)(nil)

// Procedure transforms procedure PDFs by extracting structured fields
// through the extraction service. One file yields exactly one record
// whose id hashes the document number, or the file name when the
// document carries none.
type Procedure struct {
	extractor driven.ContentExtractor
}

// NewProcedure creates a procedure transformer.
func NewProcedure(extractor driven.ContentExtractor) *Procedure {
	return &Procedure{extractor: extractor}
}

// Extensions returns the extensions this transformer handles.
func (t *Procedure) Extensions() []string {
	return []string{".pdf"}
}

// Pipelines restricts this transformer to the procedures pipeline.
func (t *Procedure) Pipelines() []string {
	return []string{domain.PipelineProcedures}
}

// Priority returns the selection priority.
func (t *Procedure) Priority() int {
	return 95
}

// RecordID returns empty: the document number is only known after field
// extraction, so change detection uses the file-name lookup.
func (t *Procedure) RecordID(_ domain.RemoteFile) string {
	return ""
}

// Transform extracts the procedure fields and projects them into the
// search string and full text.
func (t *Procedure) Transform(ctx context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	fields, err := t.extractor.ExtractFields(ctx, data, file.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, file.Name, err)
	}

	searchText := fmt.Sprintf("SOP: %s. Type: %s. Tujuan: %s. Uraian: %s. Dokumen: %s",
		fields.Title, fields.DocType, fields.Purpose, fields.Description, fields.References)
	fullText := fmt.Sprintf("Title: %s\n\nTujuan: %s\n\nUraian: %s\n\nDokumen: %s",
		fields.Title, fields.Purpose, fields.Description, fields.References)

	return &driven.TransformResult{
		RecordID:   DocumentID(fields.DocNo, file.Name),
		Title:      fields.Title,
		Code:       fields.DocNo,
		SearchText: searchText,
		Content:    fullText,
		Fields:     fields,
	}, nil
}

// DocumentID hashes the document number, or the file name when the
// number is empty, into a stable hex id.
func DocumentID(docNo, filename string) string {
	key := docNo
	if key == "" {
		key = filename
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
