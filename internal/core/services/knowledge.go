package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// KnowledgeBase is the gateway to the vector store. Every read and write of
// indexed chunks goes through it.
//
// Inserts hold the read side of mu and destructive operations the write
// side, so a remove or clear never interleaves with an insert.
type KnowledgeBase struct {
	store     driven.VectorStore
	embedding driven.EmbeddingService

	mu sync.RWMutex
}

// NewKnowledgeBase creates a gateway over the store. The embedding service
// is required for Insert and Search.
func NewKnowledgeBase(store driven.VectorStore, embedding driven.EmbeddingService) *KnowledgeBase {
	return &KnowledgeBase{
		store:     store,
		embedding: embedding,
	}
}

// Exists reports whether any chunk carries the filename.
func (kb *KnowledgeBase) Exists(ctx context.Context, filename string) (bool, error) {
	res, err := kb.store.Get(ctx, driven.MetadataFilter{domain.MetaFilename: filename}, 1)
	if err != nil {
		return false, fmt.Errorf("%w: check %s: %w", domain.ErrStoreUnavailable, filename, err)
	}
	return res.Len() > 0, nil
}

// Insert embeds and stores chunks in one batch. Every chunk must carry a
// filename; missing sources default to the filename.
func (kb *KnowledgeBase) Insert(ctx context.Context, chunks []domain.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if kb.embedding == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if c.Filename() == "" {
			return fmt.Errorf("%w: chunk %d has no filename", domain.ErrInvalidInput, i)
		}
		texts[i] = c.Content
	}

	vectors, err := kb.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]driven.VectorRecord, len(chunks))
	for i, c := range chunks {
		meta := make(map[string]any, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			meta[k] = v
		}
		if domain.MetadataString(meta, domain.MetaSource) == "" {
			meta[domain.MetaSource] = c.Filename()
		}
		records[i] = driven.VectorRecord{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata:  meta,
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if err := kb.store.Add(ctx, records); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	return nil
}

// RemoveByFilename deletes every chunk of the file and verifies none remain.
// A file that was never indexed counts as removed.
func (kb *KnowledgeBase) RemoveByFilename(ctx context.Context, filename string) (bool, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	filter := driven.MetadataFilter{domain.MetaFilename: filename}
	res, err := kb.store.Get(ctx, filter, 0)
	if err != nil {
		return false, fmt.Errorf("%w: find %s: %w", domain.ErrStoreUnavailable, filename, err)
	}
	if res.Len() == 0 {
		logger.Info("No chunks found for %s, nothing to remove", filename)
		return true, nil
	}

	logger.Debug("Removing %d chunks for %s", res.Len(), filename)
	if err := kb.store.Delete(ctx, res.IDs); err != nil {
		logger.Warn("Delete of %s failed: %v", filename, err)
		return false, nil
	}

	remaining, err := kb.store.Get(ctx, filter, 1)
	if err != nil {
		return false, fmt.Errorf("%w: verify %s: %w", domain.ErrStoreUnavailable, filename, err)
	}
	if remaining.Len() > 0 {
		logger.Warn("Chunks for %s still present after delete", filename)
		return false, nil
	}

	logger.Info("Removed %d chunks for %s", res.Len(), filename)
	return true, nil
}

// ClearAll deletes every chunk and verifies the store is empty.
func (kb *KnowledgeBase) ClearAll(ctx context.Context) (bool, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	res, err := kb.store.Get(ctx, nil, 0)
	if err != nil {
		return false, fmt.Errorf("%w: list chunks: %w", domain.ErrStoreUnavailable, err)
	}
	if res.Len() == 0 {
		return true, nil
	}

	if err := kb.store.Delete(ctx, res.IDs); err != nil {
		logger.Warn("Clear failed: %v", err)
		return false, nil
	}

	remaining, err := kb.store.Get(ctx, nil, 1)
	if err != nil {
		return false, fmt.Errorf("%w: verify clear: %w", domain.ErrStoreUnavailable, err)
	}
	if remaining.Len() > 0 {
		logger.Warn("Store not empty after clear")
		return false, nil
	}

	logger.Info("Cleared %d chunks", res.Len())
	return true, nil
}

// Statistics scans the store and aggregates chunk counts by filename.
func (kb *KnowledgeBase) Statistics(ctx context.Context) (domain.KnowledgeStats, error) {
	res, err := kb.store.Get(ctx, nil, 0)
	if err != nil {
		return domain.KnowledgeStats{}, fmt.Errorf("%w: scan: %w", domain.ErrStoreUnavailable, err)
	}

	stats := domain.KnowledgeStats{
		TotalDocuments: res.Len(),
		ChunksPerFile:  make(map[string]int),
	}
	for _, meta := range res.Metadatas {
		name := domain.MetadataString(meta, domain.MetaFilename)
		if name == "" {
			name = "unknown"
		}
		stats.ChunksPerFile[name]++
	}
	stats.UniqueFiles = len(stats.ChunksPerFile)
	return stats, nil
}

// ListFiles returns the indexed filenames sorted.
func (kb *KnowledgeBase) ListFiles(ctx context.Context) ([]string, error) {
	stats, err := kb.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Filenames(), nil
}

// FileInfo describes one indexed file.
func (kb *KnowledgeBase) FileInfo(ctx context.Context, filename string) (*domain.FileInfo, error) {
	res, err := kb.store.Get(ctx, driven.MetadataFilter{domain.MetaFilename: filename}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %w", domain.ErrStoreUnavailable, filename, err)
	}
	if res.Len() == 0 {
		return nil, fmt.Errorf("file %s: %w", filename, domain.ErrNotFound)
	}

	seen := make(map[string]struct{})
	for _, meta := range res.Metadatas {
		if src := domain.MetadataString(meta, domain.MetaSource); src != "" {
			seen[src] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for src := range seen {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	return &domain.FileInfo{
		Filename:   filename,
		ChunkCount: res.Len(),
		Sources:    sources,
	}, nil
}

// Sample returns up to limit stored chunks for inspection.
func (kb *KnowledgeBase) Sample(ctx context.Context, limit int) ([]domain.IndexedChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	res, err := kb.store.Get(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: sample: %w", domain.ErrStoreUnavailable, err)
	}

	chunks := make([]domain.IndexedChunk, res.Len())
	for i := range res.IDs {
		chunks[i] = domain.IndexedChunk{
			ID:       res.IDs[i],
			Content:  res.Documents[i],
			Metadata: res.Metadatas[i],
		}
	}
	return chunks, nil
}

// Search embeds the query and returns the k most similar chunks.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, k int) ([]domain.IndexedChunk, error) {
	if kb.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vector, err := kb.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := kb.store.SimilaritySearch(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	chunks := make([]domain.IndexedChunk, len(hits))
	for i, h := range hits {
		chunks[i] = domain.IndexedChunk{
			ID:       h.Record.ID,
			Content:  h.Record.Content,
			Metadata: h.Record.Metadata,
		}
	}
	return chunks, nil
}
