// Package whitespace provides a chunk cleanup processor.
package whitespace

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Processor normalises chunk whitespace and drops chunks that end up too short.
// It implements the PostProcessor interface.
type Processor struct {
	minLength int
}

// Option configures the whitespace processor.
type Option func(*Processor)

// WithMinLength drops chunks shorter than n characters after cleanup.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minLength = n
		}
	}
}

// New creates a new whitespace processor.
func New(opts ...Option) *Processor {
	p := &Processor{minLength: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "whitespace"
}

// Process cleans every chunk and renumbers the survivors.
func (p *Processor) Process(_ context.Context, _ *domain.ExtractedDocument, chunks []domain.IndexedChunk) ([]domain.IndexedChunk, error) {
	out := chunks[:0]
	for _, c := range chunks {
		c.Content = Clean(c.Content)
		if utf8.RuneCountInString(c.Content) < p.minLength {
			continue
		}
		if c.Metadata != nil {
			c.Metadata[domain.MetaChunkIndex] = len(out)
		}
		out = append(out, c)
	}
	return out, nil
}

// Clean normalises line endings, collapses runs of spaces and tabs inside
// lines, drops trailing spaces and limits blank lines to one.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, isSpaceOrTab), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isSpaceOrTab(r rune) bool {
	return r == ' ' || r == '\t'
}
