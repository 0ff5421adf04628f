package domain

// DefaultSearchLimit is the result count used when the caller does not
// specify one.
const DefaultSearchLimit = 5

// SearchOptions controls a retrieval request.
type SearchOptions struct {
	// Collections is the set of collections to query. Empty means the
	// caller's configured default set.
	Collections []string

	// Limit is the maximum number of fused results to return per
	// collection before the cross-collection merge. Defaults to 5.
	Limit int

	// MinScore is the confidence threshold: when the top fused score is
	// below it the result set is flagged as not confident.
	MinScore float64
}

// SearchResult is one retrieval hit, annotated with its collection.
type SearchResult struct {
	Collection string
	ID         string
	Score      float64
	Payload    RecordPayload
}

// Retrieval is the outcome of a search request.
type Retrieval struct {
	// Results is the merged, score-descending result list.
	Results []SearchResult

	// Confident is false when the top score is below the configured
	// threshold (or there are no results). Callers should treat a
	// non-confident set as insufficient evidence, not as an answer.
	Confident bool

	// Attempts is how many queries were issued (1, or 2 after the single
	// bounded expansion retry).
	Attempts int

	// Query is the query text of the final attempt.
	Query string
}

// ProcedureFields are the structured fields parsed out of a procedure
// document by the extraction service.
type ProcedureFields struct {
	Title       string `json:"title"`
	Purpose     string `json:"purpose"`
	Description string `json:"description"`
	References  string `json:"references"`
	Date        string `json:"date"`
	DocNo       string `json:"doc_no"`
	Revision    string `json:"revision"`
	DocType     string `json:"doc_type"`
}
