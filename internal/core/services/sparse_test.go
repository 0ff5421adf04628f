package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseEncoderEncode(t *testing.T) {
	enc := NewSparseEncoder()

	t.Run("counts term frequency", func(t *testing.T) {
		v := enc.Encode("izin ekspor izin")
		require.Len(t, v.Indices, 2)
		require.Len(t, v.Values, 2)

		var total float32
		for _, val := range v.Values {
			total += val
		}
		assert.Equal(t, float32(3), total)
		assert.Contains(t, v.Values, float32(2))
	})

	t.Run("drops short tokens", func(t *testing.T) {
		v := enc.Encode("di ke UU peraturan")
		assert.Len(t, v.Indices, 1)
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, enc.Encode("Prosedur"), enc.Encode("prosedur"))
	})

	t.Run("deterministic and sorted", func(t *testing.T) {
		a := enc.Encode("tata cara pengajuan izin usaha")
		b := enc.Encode("tata cara pengajuan izin usaha")
		assert.Equal(t, a, b)
		for i := 1; i < len(a.Indices); i++ {
			assert.Less(t, a.Indices[i-1], a.Indices[i])
		}
	})

	t.Run("indices bounded by vocab size", func(t *testing.T) {
		v := enc.Encode("pengawasan kepatuhan dokumentasi")
		for _, idx := range v.Indices {
			assert.Less(t, idx, uint32(sparseVocabSize))
		}
	})

	t.Run("empty input yields zero vector", func(t *testing.T) {
		assert.True(t, enc.Encode("").IsZero())
		assert.True(t, enc.Encode("a b c").IsZero())
	})
}
