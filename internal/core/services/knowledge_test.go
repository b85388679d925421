package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

func chunk(id, filename, content string) domain.IndexedChunk {
	return domain.IndexedChunk{
		ID:       id,
		Content:  content,
		Metadata: map[string]any{domain.MetaFilename: filename},
	}
}

func newTestKnowledgeBase(t *testing.T) (*KnowledgeBase, *memory.VectorStore) {
	t.Helper()
	store := memory.NewVectorStore()
	return NewKnowledgeBase(store, newMockEmbedding()), store
}

func TestKnowledgeBase_InsertAndExists(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)
	ctx := context.Background()

	ok, err := kb.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "a.txt", "alpha"),
		chunk("2", "a.txt", "beta"),
	}))

	ok, err = kb.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())

	res, err := store.Get(ctx, driven.MetadataFilter{domain.MetaFilename: "a.txt"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", res.Metadatas[0][domain.MetaSource])
}

func TestKnowledgeBase_InsertRejectsChunkWithoutFilename(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)

	err := kb.Insert(context.Background(), []domain.IndexedChunk{{ID: "1", Content: "x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, store.Len())
}

func TestKnowledgeBase_InsertEmbeddingFailure(t *testing.T) {
	store := memory.NewVectorStore()
	emb := newMockEmbedding()
	emb.batchErr = errors.New("ollama down")
	kb := NewKnowledgeBase(store, emb)

	err := kb.Insert(context.Background(), []domain.IndexedChunk{chunk("1", "a.txt", "x")})
	assert.ErrorContains(t, err, "ollama down")
	assert.Zero(t, store.Len())
}

func TestKnowledgeBase_InsertWithoutEmbedding(t *testing.T) {
	kb := NewKnowledgeBase(memory.NewVectorStore(), nil)

	err := kb.Insert(context.Background(), []domain.IndexedChunk{chunk("1", "a.txt", "x")})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestKnowledgeBase_RemoveByFilename(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)
	ctx := context.Background()
	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "a.txt", "alpha"),
		chunk("2", "b.txt", "beta"),
		chunk("3", "a.txt", "gamma"),
	}))

	ok, err := kb.RemoveByFilename(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := kb.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, store.Len())

	ok, err = kb.RemoveByFilename(ctx, "missing.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKnowledgeBase_ClearAll(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)
	ctx := context.Background()

	ok, err := kb.ClearAll(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "a.txt", "alpha"),
		chunk("2", "b.txt", "beta"),
	}))

	ok, err = kb.ClearAll(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, store.Len())
}

func TestKnowledgeBase_StoreUnavailable(t *testing.T) {
	kb := NewKnowledgeBase(&failingVectorStore{err: errors.New("connection refused")}, newMockEmbedding())
	ctx := context.Background()

	_, err := kb.Exists(ctx, "a.txt")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = kb.RemoveByFilename(ctx, "a.txt")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = kb.ClearAll(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = kb.Statistics(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestKnowledgeBase_Statistics(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)
	ctx := context.Background()

	stats, err := kb.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.UniqueFiles)

	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "a.txt", "alpha"),
		chunk("2", "b.txt", "beta"),
		chunk("3", "a.txt", "gamma"),
	}))
	// A record written without a filename by some other tool.
	require.NoError(t, store.Add(ctx, []driven.VectorRecord{{ID: "x", Content: "stray", Embedding: []float32{1}}}))

	stats, err = kb.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDocuments)
	assert.Equal(t, 3, stats.UniqueFiles)
	assert.Equal(t, map[string]int{"a.txt": 2, "b.txt": 1, "unknown": 1}, stats.ChunksPerFile)
}

func TestKnowledgeBase_ListFilesAndFileInfo(t *testing.T) {
	kb, _ := newTestKnowledgeBase(t)
	ctx := context.Background()

	c := chunk("3", "a.txt", "gamma")
	c.Metadata[domain.MetaSource] = "a.txt#page2"
	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "b.txt", "alpha"),
		chunk("2", "a.txt", "beta"),
		c,
	}))

	files, err := kb.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, files)

	info, err := kb.FileInfo(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, info.ChunkCount)
	assert.Equal(t, []string{"a.txt", "a.txt#page2"}, info.Sources)

	_, err = kb.FileInfo(ctx, "missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKnowledgeBase_Sample(t *testing.T) {
	kb, _ := newTestKnowledgeBase(t)
	ctx := context.Background()

	chunks := make([]domain.IndexedChunk, 8)
	for i := range chunks {
		chunks[i] = chunk(fmt.Sprintf("%d", i), "a.txt", fmt.Sprintf("chunk %d", i))
	}
	require.NoError(t, kb.Insert(ctx, chunks))

	sample, err := kb.Sample(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sample, 5)
	assert.Equal(t, "chunk 0", sample[0].Content)

	sample, err = kb.Sample(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
}

func TestKnowledgeBase_Search(t *testing.T) {
	kb, _ := newTestKnowledgeBase(t)
	ctx := context.Background()
	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{
		chunk("1", "fruit.txt", "apples and pears grow on trees"),
		chunk("2", "cars.txt", "engines need oil changes"),
	}))

	hits, err := kb.Search(ctx, "apples pears trees", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "fruit.txt", hits[0].Filename())
}

func TestKnowledgeService_RemoveCancelsIngestion(t *testing.T) {
	kb, _ := newTestKnowledgeBase(t)
	ctx := context.Background()
	sessions := NewSessions(memory.NewProcessingStateStore(), kb, newMockIndexer(nil), time.Second)
	svc := NewKnowledgeService(kb, sessions)

	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{chunk("1", "a.txt", "alpha")}))
	_, err := sessions.Ingestion("s").Start(ctx, uploads("b.txt"))
	require.NoError(t, err)

	ok, err := svc.RemoveFile(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, sessions.Ingestion("s").IsProcessing(ctx))

	indexed, err := svc.IsIndexed(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, indexed)

	_, err = svc.RemoveFile(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKnowledgeService_ClearCancelsIngestion(t *testing.T) {
	kb, store := newTestKnowledgeBase(t)
	ctx := context.Background()
	sessions := NewSessions(memory.NewProcessingStateStore(), kb, newMockIndexer(nil), time.Second)
	svc := NewKnowledgeService(kb, sessions)

	require.NoError(t, kb.Insert(ctx, []domain.IndexedChunk{chunk("1", "a.txt", "alpha")}))
	_, err := sessions.Ingestion("s").Start(ctx, uploads("b.txt"))
	require.NoError(t, err)

	ok, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, store.Len())
	assert.False(t, sessions.Ingestion("s").IsProcessing(ctx))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
}
