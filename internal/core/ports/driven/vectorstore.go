package driven

import "context"

// VectorRecord is one stored chunk with its embedding.
type VectorRecord struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// MetadataFilter selects records whose metadata equals every given value.
// An empty filter matches everything.
type MetadataFilter map[string]any

// Matches reports whether meta satisfies the filter.
func (f MetadataFilter) Matches(meta map[string]any) bool {
	for k, want := range f {
		got, ok := meta[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// GetResult holds records returned by VectorStore.Get, in parallel slices.
type GetResult struct {
	IDs       []string
	Documents []string
	Metadatas []map[string]any
}

// Len returns the number of records.
func (r *GetResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}

// VectorHit is a similarity search result.
type VectorHit struct {
	Record VectorRecord

	// Similarity is the cosine similarity to the query, higher is closer.
	Similarity float64
}

// VectorStore stores chunks and their embeddings.
// There is no transactional guarantee across Delete; callers verify.
type VectorStore interface {
	// Get returns records matching the filter in insertion order.
	// A limit <= 0 returns every match.
	Get(ctx context.Context, filter MetadataFilter, limit int) (*GetResult, error)

	// Add stores records. IDs must be unique.
	Add(ctx context.Context, records []VectorRecord) error

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// SimilaritySearch returns the k records closest to the query vector,
	// closest first.
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
