package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Extractor turns upload bytes into text pages.
type Extractor interface {
	// Extract returns the text pages of content.
	// Returns domain.ErrUnsupportedType for extensions it does not handle.
	Extract(ctx context.Context, content []byte, extension string) ([]domain.Page, error)

	// SupportedExtensions returns the lowercased extensions handled.
	SupportedExtensions() []string
}
