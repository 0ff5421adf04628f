package domain

import "time"

// SparseVector is a lexical vector: hashed term ids mapped to
// term-frequency weights. Indices and Values are parallel slices.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// IsZero reports whether the vector carries no terms.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// RecordPayload is the payload stored alongside the vectors of an
// indexed record. Fields not used by a collection stay empty and are
// omitted at the store boundary.
type RecordPayload struct {
	// Title is the human-readable document title (procedure title,
	// regulation description, case subject).
	Title string

	// Code is the stable domain key for keyed collections (regulation
	// classification code, procedure document number, case number).
	Code string

	// Labels is the classification label hierarchy for structured records.
	Labels []string

	// Purpose, Description, References, Revision and DocType carry the
	// parsed procedure fields.
	Purpose     string
	Description string
	References  string
	Revision    string
	DocType     string

	// SearchText is the projected text the sparse vector was built from.
	SearchText string

	// Content is the full extracted text of the record or chunk.
	Content string

	// FileName, FileID, WebURL and Size identify the remote file that
	// produced this record.
	FileName string
	FileID   string
	WebURL   string
	Size     int64

	// PageNumber, ChunkIndex and TotalPages locate a chunk within a
	// multi-page source. Zero values for single-record collections.
	PageNumber int
	ChunkIndex int
	TotalPages int

	// LastModified is copied verbatim from the RemoteFile that produced
	// this record. It is the only change-detection signal; regenerating
	// it would break skip decisions.
	LastModified time.Time
}

// Record is the unit written to a hybrid collection: one id, one dense
// vector, one sparse vector, one payload. Upserting an existing id
// replaces the record wholly.
type Record struct {
	ID      string
	Dense   []float32
	Sparse  SparseVector
	Payload RecordPayload
}

// ScoredRecord is a retrieval hit: a record id with its fused score and
// the stored payload.
type ScoredRecord struct {
	ID      string
	Score   float64
	Payload RecordPayload
}
