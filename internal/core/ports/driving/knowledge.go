package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// KnowledgeService manages the indexed knowledge base.
type KnowledgeService interface {
	// Stats aggregates the knowledge base contents.
	Stats(ctx context.Context) (domain.KnowledgeStats, error)

	// ListFiles returns indexed filenames sorted.
	ListFiles(ctx context.Context) ([]string, error)

	// FileInfo describes one indexed file.
	// Returns domain.ErrNotFound when nothing is indexed under the name.
	FileInfo(ctx context.Context, filename string) (*domain.FileInfo, error)

	// IsIndexed reports whether any chunk carries the filename.
	IsIndexed(ctx context.Context, filename string) (bool, error)

	// Inspect returns up to limit stored chunks.
	Inspect(ctx context.Context, limit int) ([]domain.IndexedChunk, error)

	// RemoveFile cancels active ingestion and removes the file's chunks.
	// Returns false when verification found chunks left behind.
	RemoveFile(ctx context.Context, filename string) (bool, error)

	// Clear cancels active ingestion and removes every chunk.
	// Returns false when verification found the store non-empty.
	Clear(ctx context.Context) (bool, error)
}
