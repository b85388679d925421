package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure StaticSource implements the interface.
var _ driven.UploadSource = (*StaticSource)(nil)

// StaticSource is an upload set held in memory, in selection order.
// Adding a name that is already present replaces its content in place.
type StaticSource struct {
	mu      sync.RWMutex
	uploads []domain.Upload
}

// NewStaticSource creates a source holding the given uploads.
func NewStaticSource(uploads ...domain.Upload) *StaticSource {
	s := &StaticSource{}
	for _, u := range uploads {
		s.Add(u)
	}
	return s
}

// FromFiles reads each path into an upload named by its base name.
func FromFiles(paths ...string) (*StaticSource, error) {
	s := &StaticSource{}
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		s.Add(domain.NewUpload(filepath.Base(p), content))
	}
	return s, nil
}

// Uploads returns a copy of the current set.
func (s *StaticSource) Uploads(_ context.Context) ([]domain.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Upload(nil), s.uploads...), nil
}

// Add appends the upload, or replaces an upload with the same name.
func (s *StaticSource) Add(u domain.Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.uploads {
		if s.uploads[i].Name == u.Name {
			s.uploads[i] = u
			return
		}
	}
	s.uploads = append(s.uploads, u)
}

// Remove drops the named upload. Returns false if it was not present.
func (s *StaticSource) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.uploads {
		if s.uploads[i].Name == name {
			s.uploads = append(s.uploads[:i], s.uploads[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns the upload names in selection order.
func (s *StaticSource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.uploads))
	for i, u := range s.uploads {
		names[i] = u.Name
	}
	return names
}

// Clear empties the set.
func (s *StaticSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = nil
}
