// Package record transforms structured JSON files into single indexed
// records: regulation classification entries and support case records.
package record

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Regulation implements the interface.
var _ driven.Transformer = (*Regulation)(nil)

// regulationDoc is the wire shape of a regulation classification file.
type regulationDoc struct {
	Code        string   `json:"code"`
	Labels      []string `json:"labels"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// Regulation transforms regulation classification JSON files. The file
// name (without extension) is the classification code and doubles as
// the record id, so the skip decision needs no download.
type Regulation struct{}

// NewRegulation creates a regulation transformer.
func NewRegulation() *Regulation {
	return &Regulation{}
}

// Extensions returns the extensions this transformer handles.
func (t *Regulation) Extensions() []string {
	return []string{".json"}
}

// Pipelines restricts this transformer to the regulations pipeline.
func (t *Regulation) Pipelines() []string {
	return []string{domain.PipelineRegulations}
}

// Priority returns the selection priority.
func (t *Regulation) Priority() int {
	return 95
}

// RecordID derives the record id from the file name alone.
func (t *Regulation) RecordID(file domain.RemoteFile) string {
	return strings.TrimSuffix(file.Name, file.Ext())
}

// Transform parses the JSON document and projects it to a search
// string: the classification label hierarchy followed by the code.
func (t *Regulation) Transform(_ context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	var doc regulationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse regulation %s: %w", file.Name, err)
	}

	code := doc.Code
	if code == "" {
		code = t.RecordID(file)
	}

	searchText := strings.TrimSpace(fmt.Sprintf("Code: %s %s", code, strings.Join(doc.Labels, " ")))

	title := doc.Title
	if title == "" && len(doc.Labels) > 0 {
		title = doc.Labels[len(doc.Labels)-1]
	}

	return &driven.TransformResult{
		RecordID:   t.RecordID(file),
		Title:      title,
		Code:       code,
		Labels:     doc.Labels,
		SearchText: searchText,
		Content:    doc.Description,
	}, nil
}
