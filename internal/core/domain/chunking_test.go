package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeChunkStats(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, ChunkStats{}, ComputeChunkStats(nil))
	})

	t.Run("mixed lengths", func(t *testing.T) {
		chunks := []IndexedChunk{
			{Content: "abcd"},
			{Content: "ab"},
			{Content: "abcdef"},
		}
		stats := ComputeChunkStats(chunks)
		assert.Equal(t, 3, stats.Count)
		assert.Equal(t, 2, stats.MinLength)
		assert.Equal(t, 6, stats.MaxLength)
		assert.Equal(t, 12, stats.TotalLength)
		assert.InDelta(t, 4.0, stats.AvgLength, 0.001)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		stats := ComputeChunkStats([]IndexedChunk{{Content: "héllo"}})
		assert.Equal(t, 5, stats.TotalLength)
	})
}

func TestExtractedDocument_TextLength(t *testing.T) {
	doc := &ExtractedDocument{Pages: []Page{{Text: "abc"}, {Index: 1, Text: "dé"}}}
	assert.Equal(t, 5, doc.TextLength())
}
