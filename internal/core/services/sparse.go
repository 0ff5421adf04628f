package services

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/halyard-labs/driftsync/internal/core/domain"
)

// sparseVocabSize bounds the sparse index space. Hash collisions within
// the space merge term weights, which is acceptable for lexical recall.
const sparseVocabSize = 1_000_000

// SparseEncoder builds hashed term-frequency vectors for lexical
// retrieval. The same encoder must be used at ingest and at query time
// so that indices line up.
type SparseEncoder struct{}

// NewSparseEncoder creates a sparse encoder.
func NewSparseEncoder() *SparseEncoder {
	return &SparseEncoder{}
}

// Encode tokenises the text and returns a sparse term-frequency vector.
// Tokens are lower-cased, split on whitespace, and tokens of two runes
// or fewer are dropped. Indices are sorted ascending and unique.
func (e *SparseEncoder) Encode(text string) domain.SparseVector {
	counts := make(map[uint32]float32)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if len([]rune(token)) <= 2 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		idx := h.Sum32() % sparseVocabSize
		counts[idx]++
	}

	if len(counts) == 0 {
		return domain.SparseVector{}
	}

	indices := make([]uint32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return domain.SparseVector{Indices: indices, Values: values}
}
