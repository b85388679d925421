package extractors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/extractors/pdf"
	"github.com/custodia-labs/docchat/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry dispatches extraction to the extractor registered for an extension.
// The last registration for an extension wins.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.Extractor),
	}
}

// NewDefaultRegistry returns a registry with the plain text and PDF extractors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(pdf.New())
	return r
}

// Register adds e for every extension it supports.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range e.SupportedExtensions() {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// Extract delegates to the extractor registered for the extension.
func (r *Registry) Extract(ctx context.Context, content []byte, extension string) ([]domain.Page, error) {
	r.mu.RLock()
	e, ok := r.extractors[strings.ToLower(extension)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", extension, domain.ErrUnsupportedType)
	}
	return e.Extract(ctx, content, extension)
}

// SupportedExtensions returns the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
