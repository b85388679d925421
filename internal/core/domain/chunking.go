package domain

import "time"

// Page is one unit of extracted text, typically a PDF page.
type Page struct {
	// Index is the zero-based page number.
	Index int

	// Text is the extracted page text.
	Text string
}

// ExtractedDocument is the extractor output for one upload.
type ExtractedDocument struct {
	// Filename is the upload name.
	Filename string

	// Extension is the upload extension.
	Extension string

	// Pages holds the extracted text in page order.
	Pages []Page

	// Plan is set by the chunker once the sizing decision is made.
	Plan *ChunkPlan
}

// TextLength returns the total rune count across pages.
func (d *ExtractedDocument) TextLength() int {
	n := 0
	for _, p := range d.Pages {
		n += len([]rune(p.Text))
	}
	return n
}

// ContentType classifies document layout for chunk sizing.
type ContentType string

// Content types.
const (
	ContentStructured ContentType = "structured"
	ContentContinuous ContentType = "continuous"
)

// ContentAnalysis summarises a document before splitting.
type ContentAnalysis struct {
	TotalLength      int         `json:"total_length"`
	NumPages         int         `json:"num_pages"`
	AvgPageLength    float64     `json:"avg_page_length"`
	NewlineDensity   float64     `json:"newline_density"`
	ParagraphDensity float64     `json:"paragraph_density"`
	ContentType      ContentType `json:"content_type"`
}

// ChunkPlan is the sizing decision for one document.
type ChunkPlan struct {
	// BaseSize is the bracket size before content adjustment.
	BaseSize int `json:"base_size"`

	// ChunkSize is the target segment length in characters.
	ChunkSize int `json:"chunk_size"`

	// Overlap is the target carry-over between segments.
	Overlap int `json:"overlap"`

	// Separators are tried in priority order.
	Separators []string `json:"separators"`

	// Analysis is the input the plan was derived from.
	Analysis ContentAnalysis `json:"analysis"`
}

// ChunkStats are size statistics over a chunk set.
type ChunkStats struct {
	Count       int     `json:"count"`
	AvgLength   float64 `json:"avg_length"`
	MinLength   int     `json:"min_length"`
	MaxLength   int     `json:"max_length"`
	TotalLength int     `json:"total_length"`
}

// ComputeChunkStats returns statistics over chunk content lengths in runes.
func ComputeChunkStats(chunks []IndexedChunk) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}

	stats := ChunkStats{Count: len(chunks)}
	for i, c := range chunks {
		n := len([]rune(c.Content))
		stats.TotalLength += n
		if i == 0 || n < stats.MinLength {
			stats.MinLength = n
		}
		if n > stats.MaxLength {
			stats.MaxLength = n
		}
	}
	stats.AvgLength = float64(stats.TotalLength) / float64(stats.Count)
	return stats
}

// ChunkSet is the chunking pipeline output for one document.
type ChunkSet struct {
	Chunks []IndexedChunk
	Plan   ChunkPlan
	Stats  ChunkStats
}

// IndexReport summarises indexing one upload.
type IndexReport struct {
	Filename string        `json:"filename"`
	Pages    int           `json:"pages"`
	Plan     ChunkPlan     `json:"plan"`
	Stats    ChunkStats    `json:"stats"`
	Duration time.Duration `json:"duration"`
}
