package chunker

import (
	"strings"
	"testing"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// paragraphs builds roughly n characters of short paragraphs split by blank lines.
func paragraphs(n int) string {
	para := strings.TrimSpace(strings.Repeat("abcd ", 8))
	var b strings.Builder
	for b.Len() < n-len(para) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(para)
	}
	return b.String()
}

func TestAnalyze(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		a := Analyze(nil, DefaultStructureThreshold)
		if a.TotalLength != 0 || a.NumPages != 0 {
			t.Errorf("expected zero analysis, got %+v", a)
		}
		if a.ContentType != domain.ContentContinuous {
			t.Errorf("expected continuous, got %s", a.ContentType)
		}
	})

	t.Run("continuous prose", func(t *testing.T) {
		a := Analyze([]domain.Page{{Text: strings.Repeat("abcd ", 600)}}, DefaultStructureThreshold)
		if a.TotalLength != 3000 {
			t.Errorf("expected length 3000, got %d", a.TotalLength)
		}
		if a.ContentType != domain.ContentContinuous {
			t.Errorf("expected continuous, got %s", a.ContentType)
		}
	})

	t.Run("paragraph heavy text is structured", func(t *testing.T) {
		a := Analyze([]domain.Page{{Text: paragraphs(3000)}}, DefaultStructureThreshold)
		if a.ContentType != domain.ContentStructured {
			t.Errorf("expected structured, got %s (density %.4f)", a.ContentType, a.ParagraphDensity)
		}
		if a.NewlineDensity <= a.ParagraphDensity {
			t.Errorf("newline density %.4f should exceed paragraph density %.4f", a.NewlineDensity, a.ParagraphDensity)
		}
	})

	t.Run("density exactly at threshold is continuous", func(t *testing.T) {
		text := strings.Repeat("a", 98) + "\n\n" + strings.Repeat("a", 98) + "\n\n"
		a := Analyze([]domain.Page{{Text: text}}, DefaultStructureThreshold)
		if a.ParagraphDensity != 0.01 {
			t.Fatalf("expected density 0.01, got %f", a.ParagraphDensity)
		}
		if a.ContentType != domain.ContentContinuous {
			t.Errorf("expected continuous at threshold, got %s", a.ContentType)
		}
	})

	t.Run("averages page length", func(t *testing.T) {
		pages := []domain.Page{{Text: "abcd"}, {Index: 1, Text: "ab"}}
		a := Analyze(pages, DefaultStructureThreshold)
		if a.AvgPageLength != 3 {
			t.Errorf("expected average 3, got %f", a.AvgPageLength)
		}
	})
}

func TestPlanFor_Brackets(t *testing.T) {
	tests := []struct {
		length  int
		size    int
		overlap int
	}{
		{0, 500, 100},
		{5000, 500, 100},
		{5001, 1000, 200},
		{20000, 1000, 200},
		{20001, 1500, 300},
		{50000, 1500, 300},
		{50001, 2000, 400},
		{250000, 2000, 400},
	}

	for _, tt := range tests {
		plan := PlanFor(domain.ContentAnalysis{TotalLength: tt.length, ContentType: domain.ContentContinuous})
		if plan.BaseSize != tt.size || plan.ChunkSize != tt.size || plan.Overlap != tt.overlap {
			t.Errorf("length %d: expected (%d,%d), got base=%d size=%d overlap=%d",
				tt.length, tt.size, tt.overlap, plan.BaseSize, plan.ChunkSize, plan.Overlap)
		}
	}
}

func TestPlanFor_LowDensityKeepsBaseSize(t *testing.T) {
	plan := PlanFor(Analyze([]domain.Page{{Text: strings.Repeat("abcd ", 600)}}, DefaultStructureThreshold))
	if plan.ChunkSize != 500 || plan.Overlap != 100 {
		t.Errorf("expected (500,100) for 3000 chars of prose, got (%d,%d)", plan.ChunkSize, plan.Overlap)
	}
}

func TestPlanFor_StructuredShrinksSizeOnly(t *testing.T) {
	structured := PlanFor(Analyze([]domain.Page{{Text: paragraphs(3000)}}, DefaultStructureThreshold))
	if structured.ChunkSize != 450 {
		t.Errorf("expected structured size 450, got %d", structured.ChunkSize)
	}
	if structured.Overlap != 100 {
		t.Errorf("expected overlap 100, got %d", structured.Overlap)
	}
	if len(structured.Separators) != 5 || structured.Separators[2] != ". " {
		t.Errorf("unexpected structured separators %q", structured.Separators)
	}

	continuous := PlanFor(Analyze([]domain.Page{{Text: strings.Repeat("abcd ", 600)}}, DefaultStructureThreshold))
	if continuous.ChunkSize != 500 || continuous.Overlap != 100 {
		t.Errorf("expected (500,100), got (%d,%d)", continuous.ChunkSize, continuous.Overlap)
	}
	if len(continuous.Separators) != 4 {
		t.Errorf("unexpected continuous separators %q", continuous.Separators)
	}
}

func TestPlanFor_LargeDocumentsKeepOverlap(t *testing.T) {
	for _, text := range []string{strings.Repeat("abcd ", 12000), paragraphs(60000)} {
		plan := PlanFor(Analyze([]domain.Page{{Text: text}}, DefaultStructureThreshold))
		if plan.BaseSize != 2000 || plan.Overlap != 400 {
			t.Errorf("expected base 2000 overlap 400, got base=%d overlap=%d", plan.BaseSize, plan.Overlap)
		}
	}
}
