package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// processingStateStore implements driven.ProcessingStateStore.
// Each state is one msgpack blob so new fields need no migration.
type processingStateStore struct {
	store *Store
}

var _ driven.ProcessingStateStore = (*processingStateStore)(nil)

// Load returns the saved state, or a fresh idle state when none exists.
func (s *processingStateStore) Load(ctx context.Context, sessionID string) (*domain.ProcessingState, error) {
	var blob []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT state FROM processing_state WHERE session_id = ?", sessionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewProcessingState(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading processing state: %w", err)
	}

	var state domain.ProcessingState
	if err := msgpack.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("decoding processing state: %w", err)
	}
	state.SessionID = sessionID
	return &state, nil
}

// Save replaces the saved state for state.SessionID.
func (s *processingStateStore) Save(ctx context.Context, state *domain.ProcessingState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("%w: processing state without session", domain.ErrInvalidInput)
	}

	clone := state.Clone()
	clone.UpdatedAt = time.Now().UTC()

	blob, err := msgpack.Marshal(&clone)
	if err != nil {
		return fmt.Errorf("encoding processing state: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO processing_state (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, clone.SessionID, blob, clone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving processing state: %w", err)
	}
	return nil
}

// Delete removes the saved state.
func (s *processingStateStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM processing_state WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting processing state: %w", err)
	}
	return nil
}

// Sessions returns the IDs with saved state, sorted.
func (s *processingStateStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT session_id FROM processing_state ORDER BY session_id")
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
