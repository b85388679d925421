package upload

import (
	"sort"
	"sync"
)

// Registry holds one StaticSource per session for callers that receive
// uploads over the network rather than from disk.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*StaticSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*StaticSource)}
}

// Source returns the session's source, creating an empty one on first use.
func (r *Registry) Source(sessionID string) *StaticSource {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sources[sessionID]
	if !ok {
		s = NewStaticSource()
		r.sources[sessionID] = s
	}
	return s
}

// Drop forgets the session's source.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, sessionID)
}

// Sessions returns the session IDs with a source, sorted.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
