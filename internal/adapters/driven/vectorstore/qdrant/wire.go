package qdrant

import (
	"time"

	"github.com/google/uuid"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// Vector names within a collection. Ingest and query must agree on
// these or sub-queries silently miss.
const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// payloadDoc is the wire shape of a record payload. The domain struct
// is serialized only here, at the store boundary.
type payloadDoc struct {
	RecordID     string   `json:"record_id"`
	Title        string   `json:"title,omitempty"`
	Code         string   `json:"code,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Purpose      string   `json:"purpose,omitempty"`
	Description  string   `json:"description,omitempty"`
	References   string   `json:"references,omitempty"`
	Revision     string   `json:"revision,omitempty"`
	DocType      string   `json:"doc_type,omitempty"`
	SearchText   string   `json:"search_text,omitempty"`
	Content      string   `json:"content,omitempty"`
	FileName     string   `json:"file_name,omitempty"`
	FileID       string   `json:"file_id,omitempty"`
	WebURL       string   `json:"web_url,omitempty"`
	Size         int64    `json:"size,omitempty"`
	PageNumber   int      `json:"page_number,omitempty"`
	ChunkIndex   int      `json:"chunk_index,omitempty"`
	TotalPages   int      `json:"total_pages,omitempty"`
	LastModified string   `json:"last_modified"`
}

func toPayload(id string, p domain.RecordPayload) payloadDoc {
	return payloadDoc{
		RecordID:     id,
		Title:        p.Title,
		Code:         p.Code,
		Labels:       p.Labels,
		Purpose:      p.Purpose,
		Description:  p.Description,
		References:   p.References,
		Revision:     p.Revision,
		DocType:      p.DocType,
		SearchText:   p.SearchText,
		Content:      p.Content,
		FileName:     p.FileName,
		FileID:       p.FileID,
		WebURL:       p.WebURL,
		Size:         p.Size,
		PageNumber:   p.PageNumber,
		ChunkIndex:   p.ChunkIndex,
		TotalPages:   p.TotalPages,
		LastModified: p.LastModified.UTC().Format(time.RFC3339Nano),
	}
}

func fromPayload(d payloadDoc) domain.RecordPayload {
	p := domain.RecordPayload{
		Title:       d.Title,
		Code:        d.Code,
		Labels:      d.Labels,
		Purpose:     d.Purpose,
		Description: d.Description,
		References:  d.References,
		Revision:    d.Revision,
		DocType:     d.DocType,
		SearchText:  d.SearchText,
		Content:     d.Content,
		FileName:    d.FileName,
		FileID:      d.FileID,
		WebURL:      d.WebURL,
		Size:        d.Size,
		PageNumber:  d.PageNumber,
		ChunkIndex:  d.ChunkIndex,
		TotalPages:  d.TotalPages,
	}
	if ts, err := time.Parse(time.RFC3339Nano, d.LastModified); err == nil {
		p.LastModified = ts
	}
	return p
}

// pointID maps a domain record id to a valid Qdrant point id. Ids that
// already are UUIDs pass through; anything else is hashed into a
// deterministic UUIDv5 so the same domain id always lands on the same
// point. The domain id itself travels in the payload.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// Collection management.

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors       map[string]vectorParams `json:"vectors"`
	SparseVectors map[string]struct{}     `json:"sparse_vectors"`
}

// Points.

type sparseVectorDoc struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

type pointDoc struct {
	ID      string         `json:"id"`
	Vector  map[string]any `json:"vector"`
	Payload payloadDoc     `json:"payload"`
}

type upsertRequest struct {
	Points []pointDoc `json:"points"`
}

type retrieveRequest struct {
	IDs         []string `json:"ids"`
	WithPayload bool     `json:"with_payload"`
}

type deleteRequest struct {
	Points []string `json:"points"`
}

// Scroll (payload-filtered lookup).

type matchFilter struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type scrollRequest struct {
	Filter struct {
		Must []matchFilter `json:"must"`
	} `json:"filter"`
	Limit       int  `json:"limit"`
	WithPayload bool `json:"with_payload"`
}

// Search.

type namedVector struct {
	Name   string    `json:"name"`
	Vector []float32 `json:"vector"`
}

type namedSparseVector struct {
	Name   string          `json:"name"`
	Vector sparseVectorDoc `json:"vector"`
}

type searchRequest struct {
	Vector      any  `json:"vector"`
	Limit       int  `json:"limit"`
	WithPayload bool `json:"with_payload"`
}

// Responses.

type scoredPointDoc struct {
	ID      string     `json:"id"`
	Score   float64    `json:"score"`
	Payload payloadDoc `json:"payload"`
}

type pointsResponse struct {
	Result []scoredPointDoc `json:"result"`
}

type scrollResponse struct {
	Result struct {
		Points []scoredPointDoc `json:"points"`
	} `json:"result"`
}

type collectionListResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}
