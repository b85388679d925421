package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Records keep insertion order; similarity search is brute force.
type VectorStore struct {
	mu      sync.RWMutex
	records []driven.VectorRecord
	ids     map[string]struct{}
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		ids: make(map[string]struct{}),
	}
}

// Get returns records matching the filter in insertion order.
func (s *VectorStore) Get(_ context.Context, filter driven.MetadataFilter, limit int) (*driven.GetResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &driven.GetResult{}
	for _, r := range s.records {
		if !filter.Matches(r.Metadata) {
			continue
		}
		result.IDs = append(result.IDs, r.ID)
		result.Documents = append(result.Documents, r.Content)
		result.Metadatas = append(result.Metadatas, copyMetadata(r.Metadata))
		if limit > 0 && len(result.IDs) >= limit {
			break
		}
	}
	return result, nil
}

// Add stores records. The whole batch is rejected if any ID already exists.
func (s *VectorStore) Add(_ context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if _, ok := s.ids[r.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidInput, r.ID)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	for _, r := range records {
		s.records = append(s.records, driven.VectorRecord{
			ID:        r.ID,
			Content:   r.Content,
			Embedding: append([]float32(nil), r.Embedding...),
			Metadata:  copyMetadata(r.Metadata),
		})
		s.ids[r.ID] = struct{}{}
	}
	return nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.records[:0]
	for _, r := range s.records {
		if _, ok := drop[r.ID]; ok {
			delete(s.ids, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

// SimilaritySearch returns the k records closest to the query.
func (s *VectorStore) SimilaritySearch(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([][]float32, len(s.records))
	for i, r := range s.records {
		candidates[i] = r.Embedding
	}

	ranked := similarity.TopK(query, candidates, k)
	hits := make([]driven.VectorHit, len(ranked))
	for i, sc := range ranked {
		r := s.records[sc.Index]
		hits[i] = driven.VectorHit{
			Record: driven.VectorRecord{
				ID:        r.ID,
				Content:   r.Content,
				Embedding: append([]float32(nil), r.Embedding...),
				Metadata:  copyMetadata(r.Metadata),
			},
			Similarity: sc.Score,
		}
	}
	return hits, nil
}

// Len returns the number of stored records.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

func copyMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
