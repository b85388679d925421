package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// PostProcessor produces or refines chunks for an extracted document.
// PostProcessors are chained in a pipeline (e.g., chunking, whitespace cleanup).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor modifies chunks, it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.ExtractedDocument, chunks []domain.IndexedChunk) ([]domain.IndexedChunk, error)
}

// ChunkingPipeline chains PostProcessors into a chunk set.
type ChunkingPipeline interface {
	// Process runs the document through all processors in order and returns
	// the final chunks with the sizing plan and statistics.
	Process(ctx context.Context, doc *domain.ExtractedDocument) (*domain.ChunkSet, error)
}
