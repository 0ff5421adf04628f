package record

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Case implements the interface.
var _ driven.Transformer = (*Case)(nil)

// caseDoc is the wire shape of a support case file.
type caseDoc struct {
	CaseNo   int    `json:"case_no"`
	Date     string `json:"date"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Case transforms support case JSON files. The record id is the case
// number inside the document, so change detection falls back to the
// file-name lookup.
type Case struct{}

// NewCase creates a case transformer.
func NewCase() *Case {
	return &Case{}
}

// Extensions returns the extensions this transformer handles.
func (t *Case) Extensions() []string {
	return []string{".json"}
}

// Pipelines restricts this transformer to the cases pipeline.
func (t *Case) Pipelines() []string {
	return []string{domain.PipelineCases}
}

// Priority returns the selection priority.
func (t *Case) Priority() int {
	return 95
}

// RecordID returns empty: the case number is only known after parsing.
func (t *Case) RecordID(_ domain.RemoteFile) string {
	return ""
}

// Transform parses the case document and projects question and answer
// into a single searchable string.
func (t *Case) Transform(_ context.Context, file domain.RemoteFile, data []byte) (*driven.TransformResult, error) {
	var doc caseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse case %s: %w", file.Name, err)
	}
	if doc.Question == "" {
		return nil, fmt.Errorf("%w: case %s has no question", domain.ErrInvalidInput, file.Name)
	}

	id := strconv.Itoa(doc.CaseNo)
	if doc.CaseNo == 0 {
		id = strings.TrimSuffix(file.Name, file.Ext())
	}

	return &driven.TransformResult{
		RecordID:   id,
		Title:      doc.Question,
		Code:       id,
		SearchText: fmt.Sprintf("Q: %s A: %s", doc.Question, doc.Answer),
		Content:    doc.Answer,
	}, nil
}
