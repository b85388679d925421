// Package chunker provides an adaptive recursive text chunking processor.
//
// Segment size and overlap follow the document length, and structured
// documents (many paragraph breaks) get slightly smaller segments with a
// sentence-level separator.
package chunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Processor splits extracted pages into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	// fixedSize and fixedOverlap override the adaptive plan when set.
	fixedSize    int
	fixedOverlap int
	threshold    float64
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize pins the chunk size in characters, disabling the size brackets.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.fixedSize = size
		}
	}
}

// WithOverlap pins the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.fixedOverlap = overlap
		}
	}
}

// WithStructureThreshold sets the paragraph density that marks content as structured.
func WithStructureThreshold(threshold float64) Option {
	return func(p *Processor) {
		if threshold > 0 {
			p.threshold = threshold
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		fixedOverlap: -1,
		threshold:    DefaultStructureThreshold,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Plan returns the sizing decision for the pages.
func (p *Processor) Plan(pages []domain.Page) domain.ChunkPlan {
	plan := PlanFor(Analyze(pages, p.threshold))
	if p.fixedSize > 0 {
		plan.ChunkSize = p.fixedSize
	}
	if p.fixedOverlap >= 0 {
		plan.Overlap = p.fixedOverlap
	}
	if plan.Overlap >= plan.ChunkSize {
		plan.Overlap = plan.ChunkSize / 4
	}
	return plan
}

// Process splits every page of the document into chunks and records the
// plan on the document. Input chunks are ignored; this processor creates
// new chunks from the document pages.
func (p *Processor) Process(ctx context.Context, doc *domain.ExtractedDocument, _ []domain.IndexedChunk) ([]domain.IndexedChunk, error) {
	plan := p.Plan(doc.Pages)
	doc.Plan = &plan

	splitter := NewSplitter(plan.ChunkSize, plan.Overlap, plan.Separators)

	var chunks []domain.IndexedChunk
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, segment := range splitter.Split(page.Text) {
			chunks = append(chunks, domain.IndexedChunk{
				ID:      uuid.New().String(),
				Content: segment,
				Metadata: map[string]any{
					domain.MetaFilename:     doc.Filename,
					domain.MetaSource:       doc.Filename,
					domain.MetaPage:         page.Index,
					domain.MetaChunkIndex:   len(chunks),
					domain.MetaChunkSize:    plan.ChunkSize,
					domain.MetaChunkOverlap: plan.Overlap,
					domain.MetaContentType:  string(plan.Analysis.ContentType),
				},
			})
		}
	}

	return chunks, nil
}
