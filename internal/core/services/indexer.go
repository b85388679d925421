package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Indexer turns one upload into stored chunks.
type Indexer struct {
	extractor driven.Extractor
	pipeline  driven.ChunkingPipeline
	kb        *KnowledgeBase
}

// NewIndexer creates an indexer.
func NewIndexer(extractor driven.Extractor, pipeline driven.ChunkingPipeline, kb *KnowledgeBase) *Indexer {
	return &Indexer{
		extractor: extractor,
		pipeline:  pipeline,
		kb:        kb,
	}
}

// Index extracts, chunks and stores the upload.
func (ix *Indexer) Index(ctx context.Context, upload domain.Upload) (domain.IndexReport, error) {
	start := time.Now()
	report := domain.IndexReport{Filename: upload.Name}

	// 1. Extract text pages
	if !upload.IsSupported() {
		return report, fmt.Errorf("%s: %w", upload.Extension, domain.ErrUnsupportedType)
	}
	pages, err := ix.extractor.Extract(ctx, upload.Content, upload.Extension)
	if err != nil {
		return report, fmt.Errorf("extract: %w", err)
	}

	doc := &domain.ExtractedDocument{
		Filename:  upload.Name,
		Extension: upload.Extension,
		Pages:     pages,
	}
	report.Pages = len(pages)
	if doc.TextLength() == 0 {
		return report, domain.ErrNoContent
	}

	// 2. Chunk
	set, err := ix.pipeline.Process(ctx, doc)
	if err != nil {
		return report, fmt.Errorf("chunk: %w", err)
	}
	if len(set.Chunks) == 0 {
		return report, domain.ErrNoContent
	}
	report.Plan = set.Plan
	report.Stats = set.Stats

	logger.Debug("%s: %d pages, %d chars, %s content, chunk size %d overlap %d",
		upload.Name, len(pages), set.Plan.Analysis.TotalLength, set.Plan.Analysis.ContentType,
		set.Plan.ChunkSize, set.Plan.Overlap)

	// 3. Store. A context that expired while extracting or embedding must not
	// leave chunks behind for a file reported as failed.
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := ix.kb.Insert(ctx, set.Chunks); err != nil {
		return report, fmt.Errorf("index: %w", err)
	}

	report.Duration = time.Since(start)
	logger.Info("Indexed %s: %d chunks (avg %.0f, min %d, max %d chars) in %s",
		upload.Name, set.Stats.Count, set.Stats.AvgLength, set.Stats.MinLength, set.Stats.MaxLength,
		report.Duration.Round(time.Millisecond))

	return report, nil
}
