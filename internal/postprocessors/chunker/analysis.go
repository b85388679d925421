package chunker

import (
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DefaultStructureThreshold is the paragraph density (double newlines per
// character) above which content counts as structured.
const DefaultStructureThreshold = 0.01

// structuredShrink scales the segment size for structured content.
const structuredShrink = 0.9

// sizeBracket maps a maximum document length to a segment size and overlap.
type sizeBracket struct {
	maxLength int
	size      int
	overlap   int
}

// brackets are checked in order; the last one catches everything.
var brackets = []sizeBracket{
	{maxLength: 5000, size: 500, overlap: 100},
	{maxLength: 20000, size: 1000, overlap: 200},
	{maxLength: 50000, size: 1500, overlap: 300},
	{maxLength: -1, size: 2000, overlap: 400},
}

// Separator priority lists, coarsest first.
var (
	structuredSeparators = []string{"\n\n", "\n", ". ", " ", ""}
	continuousSeparators = []string{"\n\n", "\n", " ", ""}
)

// Analyze measures the pages and classifies the content.
func Analyze(pages []domain.Page, threshold float64) domain.ContentAnalysis {
	a := domain.ContentAnalysis{
		NumPages:    len(pages),
		ContentType: domain.ContentContinuous,
	}

	var newlines, paragraphs int
	for _, p := range pages {
		a.TotalLength += len([]rune(p.Text))
		newlines += strings.Count(p.Text, "\n")
		paragraphs += strings.Count(p.Text, "\n\n")
	}

	if a.NumPages > 0 {
		a.AvgPageLength = float64(a.TotalLength) / float64(a.NumPages)
	}
	if a.TotalLength > 0 {
		a.NewlineDensity = float64(newlines) / float64(a.TotalLength)
		a.ParagraphDensity = float64(paragraphs) / float64(a.TotalLength)
	}
	if a.ParagraphDensity > threshold {
		a.ContentType = domain.ContentStructured
	}

	return a
}

// PlanFor picks the segment size, overlap and separators for an analysis.
// Structure only changes the size and separators, never the overlap.
func PlanFor(a domain.ContentAnalysis) domain.ChunkPlan {
	bracket := brackets[len(brackets)-1]
	for _, b := range brackets {
		if b.maxLength >= 0 && a.TotalLength <= b.maxLength {
			bracket = b
			break
		}
	}

	plan := domain.ChunkPlan{
		BaseSize:  bracket.size,
		ChunkSize: bracket.size,
		Overlap:   bracket.overlap,
		Analysis:  a,
	}

	if a.ContentType == domain.ContentStructured {
		plan.ChunkSize = int(float64(bracket.size) * structuredShrink)
		plan.Separators = append([]string(nil), structuredSeparators...)
	} else {
		plan.Separators = append([]string(nil), continuousSeparators...)
	}

	return plan
}
