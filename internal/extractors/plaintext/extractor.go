// Package plaintext extracts text from plain text uploads.
package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor returns the whole file as a single page.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{domain.ExtensionText}
}

// Extract decodes content as UTF-8 with normalised line endings.
// Invalid sequences are replaced rather than rejected.
func (e *Extractor) Extract(ctx context.Context, content []byte, _ string) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content = bytes.TrimPrefix(content, utf8BOM)
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return []domain.Page{{Index: 0, Text: text}}, nil
}
