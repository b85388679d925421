package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// TickOutcome is what a single ProcessNext call did.
type TickOutcome string

// Tick outcomes.
const (
	// TickIdle means the session was not processing; nothing happened.
	TickIdle TickOutcome = "idle"

	// TickCompleted means the queue was exhausted and the run finalised.
	TickCompleted TickOutcome = "completed"

	// TickIndexed means one file was indexed.
	TickIndexed TickOutcome = "indexed"

	// TickFailed means one file failed and the cursor moved past it.
	TickFailed TickOutcome = "failed"

	// TickSkipped means one file was passed over without indexing.
	TickSkipped TickOutcome = "skipped"

	// TickError means the knowledge store could not be reached and the
	// session moved to the error status.
	TickError TickOutcome = "error"

	// TickStale means another writer changed the run while a file was in
	// flight. The stored state was kept and nothing was recorded.
	TickStale TickOutcome = "stale"
)

// TickResult reports one advance of the ingestion state machine.
type TickResult struct {
	// Outcome is what the tick did.
	Outcome TickOutcome

	// File is the per-file result, nil for idle and completed ticks.
	File *domain.FileResult

	// State is the state after the tick.
	State domain.ProcessingState
}

// Done reports whether further ticks would do nothing.
func (r TickResult) Done() bool {
	return r.Outcome == TickIdle || r.Outcome == TickCompleted || r.Outcome == TickError
}

// IngestionService is the per-session ingestion state machine.
// Every call performs at most one unit of work and returns; the caller owns
// the cadence of ProcessNext calls.
type IngestionService interface {
	// Start queues the uploads not yet indexed. Declined starts return
	// domain.ErrProcessingInProgress, domain.ErrNoFiles or
	// domain.ErrAllFilesIndexed and leave the state untouched.
	Start(ctx context.Context, uploads []domain.Upload) (domain.ProcessingState, error)

	// ProcessNext handles at most one queued file, looking it up in the live
	// upload set supplied by the caller.
	ProcessNext(ctx context.Context, live []domain.Upload) (TickResult, error)

	// UpdateFiles drops queued files missing from the live set and returns
	// their names. Removing every file cancels the run.
	UpdateFiles(ctx context.Context, live []domain.Upload) ([]string, error)

	// Cancel stops an active run with the given reason.
	// Returns false when nothing was active.
	Cancel(ctx context.Context, reason string) (bool, error)

	// Reset returns a finished run to idle.
	Reset(ctx context.Context) error

	// IsProcessing reports whether a run is active.
	IsProcessing(ctx context.Context) bool

	// State returns a snapshot of the current state.
	State(ctx context.Context) (domain.ProcessingState, error)
}

// SessionRegistry hands out one IngestionService per session.
type SessionRegistry interface {
	// Ingestion returns the state machine for the session, creating it on first use.
	Ingestion(sessionID string) IngestionService

	// CancelAll cancels and resets every active session. Returns the
	// IDs of sessions that were cancelled.
	CancelAll(ctx context.Context, reason string) ([]string, error)
}

// TickFunc observes each tick. Returning an error stops the run.
type TickFunc func(TickResult) error

// IngestionRunner drives an ingestion state machine to completion against a
// live upload source.
type IngestionRunner interface {
	// Run ticks until the run finishes or ctx is cancelled, and returns the
	// final state.
	Run(ctx context.Context, ingestion IngestionService, source driven.UploadSource, onTick TickFunc) (domain.ProcessingState, error)
}
