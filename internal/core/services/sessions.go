package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Sessions implements the interface.
var _ driving.SessionRegistry = (*Sessions)(nil)

// Sessions hands out one FileProcessor per session ID.
type Sessions struct {
	states      driven.ProcessingStateStore
	index       IndexChecker
	indexer     FileIndexer
	fileTimeout time.Duration

	mu         sync.Mutex
	processors map[string]*FileProcessor
}

// NewSessions creates a registry whose processors share the state store,
// index checker and indexer.
func NewSessions(
	states driven.ProcessingStateStore,
	index IndexChecker,
	indexer FileIndexer,
	fileTimeout time.Duration,
) *Sessions {
	return &Sessions{
		states:      states,
		index:       index,
		indexer:     indexer,
		fileTimeout: fileTimeout,
		processors:  make(map[string]*FileProcessor),
	}
}

// Ingestion returns the state machine for the session, creating it on first use.
func (s *Sessions) Ingestion(sessionID string) driving.IngestionService {
	return s.Processor(sessionID)
}

// Processor returns the concrete state machine for the session.
func (s *Sessions) Processor(sessionID string) *FileProcessor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.processors[sessionID]; ok {
		return p
	}
	p := NewFileProcessor(sessionID, s.states, s.index, s.indexer, WithFileTimeout(s.fileTimeout))
	s.processors[sessionID] = p
	return p
}

// CancelAll cancels and resets every active session, including sessions
// only known to the state store. Returns the cancelled IDs sorted.
func (s *Sessions) CancelAll(ctx context.Context, reason string) ([]string, error) {
	ids, err := s.sessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	var cancelled []string
	for _, id := range ids {
		p := s.Processor(id)
		ok, err := p.Cancel(ctx, reason)
		if err != nil {
			return cancelled, fmt.Errorf("cancel session %s: %w", id, err)
		}
		if !ok {
			continue
		}
		if err := p.Reset(ctx); err != nil {
			return cancelled, fmt.Errorf("reset session %s: %w", id, err)
		}
		cancelled = append(cancelled, id)
	}

	if len(cancelled) > 0 {
		logger.Info("%s (%d session(s))", reason, len(cancelled))
	}
	return cancelled, nil
}

func (s *Sessions) sessionIDs(ctx context.Context) ([]string, error) {
	stored, err := s.states.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	seen := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		seen[id] = struct{}{}
	}
	s.mu.Lock()
	for id := range s.processors {
		seen[id] = struct{}{}
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
