package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.ProcessingStateStore = (*ProcessingStateStore)(nil)
	_ driven.HistoryStore         = (*HistoryStore)(nil)
)

// ProcessingStateStore is an in-memory implementation of driven.ProcessingStateStore.
type ProcessingStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.ProcessingState
}

// NewProcessingStateStore creates a new in-memory processing state store.
func NewProcessingStateStore() *ProcessingStateStore {
	return &ProcessingStateStore{
		states: make(map[string]domain.ProcessingState),
	}
}

// Load returns a copy of the saved state, or a fresh idle state.
func (s *ProcessingStateStore) Load(_ context.Context, sessionID string) (*domain.ProcessingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionID]
	if !ok {
		return domain.NewProcessingState(sessionID), nil
	}
	clone := state.Clone()
	return &clone, nil
}

// Save stores a copy of the state.
func (s *ProcessingStateStore) Save(_ context.Context, state *domain.ProcessingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := state.Clone()
	clone.UpdatedAt = time.Now()
	s.states[state.SessionID] = clone
	return nil
}

// Delete removes the saved state.
func (s *ProcessingStateStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

// Sessions returns the IDs with saved state, sorted.
func (s *ProcessingStateStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Message
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string][]domain.Message),
	}
}

// Load returns a copy of the session messages.
func (s *HistoryStore) Load(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.sessions[sessionID]...), nil
}

// Save replaces the session messages.
func (s *HistoryStore) Save(_ context.Context, sessionID string, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append([]domain.Message(nil), messages...)
	return nil
}

// Clear removes the session messages.
func (s *HistoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
