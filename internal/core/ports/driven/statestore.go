package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ProcessingStateStore persists ingestion state per session so every tick
// can resume from the last saved state.
type ProcessingStateStore interface {
	// Load returns the saved state, or a fresh idle state when none exists.
	Load(ctx context.Context, sessionID string) (*domain.ProcessingState, error)

	// Save replaces the saved state for state.SessionID.
	Save(ctx context.Context, state *domain.ProcessingState) error

	// Delete removes the saved state.
	Delete(ctx context.Context, sessionID string) error

	// Sessions returns the IDs with saved state.
	Sessions(ctx context.Context) ([]string, error)
}

// HistoryStore persists conversation history per session.
type HistoryStore interface {
	// Load returns the messages in order, empty when none exist.
	Load(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Save replaces the stored history.
	Save(ctx context.Context, sessionID string, messages []domain.Message) error

	// Clear removes the stored history.
	Clear(ctx context.Context, sessionID string) error
}
