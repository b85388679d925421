package domain

import (
	"fmt"
	"time"
)

// ProcessingStatus is the ingestion state machine status.
type ProcessingStatus string

// Processing statuses.
const (
	StatusIdle       ProcessingStatus = "idle"
	StatusStarting   ProcessingStatus = "starting"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusCancelled  ProcessingStatus = "cancelled"
	StatusError      ProcessingStatus = "error"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusIdle, StatusStarting, StatusProcessing, StatusCompleted, StatusCancelled, StatusError:
		return true
	default:
		return false
	}
}

// IsActive returns true while a processing cycle owns the session.
func (s ProcessingStatus) IsActive() bool {
	return s == StatusStarting || s == StatusProcessing
}

// IsFinished returns true for statuses that only reset can leave.
func (s ProcessingStatus) IsFinished() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// FileOutcome is the result of handling one queued file.
type FileOutcome string

// File outcomes.
const (
	OutcomeIndexed FileOutcome = "indexed"
	OutcomeFailed  FileOutcome = "failed"
	OutcomeSkipped FileOutcome = "skipped"
)

// Skip and failure reasons.
const (
	ReasonAlreadyIndexed  = "already indexed"
	ReasonNoLongerPresent = "no longer uploaded"
	ReasonUnsupported     = "unsupported file type"
	ReasonTimedOut        = "timed out"
)

// Cancellation reasons.
const (
	CancelReasonDefault      = "Processing cancelled"
	CancelReasonAllRemoved   = "Processing cancelled - all files removed"
	CancelReasonNoSelection  = "Processing cancelled - no files selected"
	CancelReasonRemovingFile = "Processing cancelled - removing file"
	CancelReasonClearing     = "Processing cancelled - clearing database"
)

// FileResult records what happened to one queued file.
type FileResult struct {
	Filename string        `msgpack:"filename" json:"filename"`
	Outcome  FileOutcome   `msgpack:"outcome" json:"outcome"`
	Reason   string        `msgpack:"reason,omitempty" json:"reason,omitempty"`
	Chunks   int           `msgpack:"chunks,omitempty" json:"chunks,omitempty"`
	Duration time.Duration `msgpack:"duration" json:"duration"`
}

// ProcessingState is the ingestion state of one session.
//
// While Processing, 0 <= CurrentFileIndex <= TotalFiles == len(FilesToProcess).
// Completed implies Progress == 1.0.
type ProcessingState struct {
	SessionID        string           `msgpack:"session_id" json:"session_id"`
	Status           ProcessingStatus `msgpack:"status" json:"status"`
	FilesToProcess   []string         `msgpack:"files_to_process" json:"files_to_process"`
	CurrentFileIndex int              `msgpack:"current_file_index" json:"current_file_index"`
	TotalFiles       int              `msgpack:"total_files" json:"total_files"`
	CurrentFilename  string           `msgpack:"current_filename" json:"current_filename"`
	Progress         float64          `msgpack:"progress" json:"progress"`
	Message          string           `msgpack:"message" json:"message"`
	Results          []FileResult     `msgpack:"results" json:"results"`
	UpdatedAt        time.Time        `msgpack:"updated_at" json:"updated_at"`
}

// NewProcessingState returns an idle state for the session.
func NewProcessingState(sessionID string) *ProcessingState {
	return &ProcessingState{
		SessionID: sessionID,
		Status:    StatusIdle,
	}
}

// Clone returns a deep copy.
func (s *ProcessingState) Clone() ProcessingState {
	out := *s
	if s.FilesToProcess != nil {
		out.FilesToProcess = append([]string(nil), s.FilesToProcess...)
	}
	if s.Results != nil {
		out.Results = append([]FileResult(nil), s.Results...)
	}
	return out
}

// Reset zeroes every field except the session ID.
func (s *ProcessingState) Reset() {
	*s = ProcessingState{SessionID: s.SessionID, Status: StatusIdle}
}

// Remaining returns the number of queued files not yet handled.
func (s *ProcessingState) Remaining() int {
	if s.CurrentFileIndex >= len(s.FilesToProcess) {
		return 0
	}
	return len(s.FilesToProcess) - s.CurrentFileIndex
}

// Count returns the number of results with the given outcome.
func (s *ProcessingState) Count(outcome FileOutcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Validate checks the cursor invariants.
func (s *ProcessingState) Validate() error {
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s.Status)
	}
	if s.TotalFiles != len(s.FilesToProcess) {
		return fmt.Errorf("%w: total files %d does not match queue length %d",
			ErrInvalidInput, s.TotalFiles, len(s.FilesToProcess))
	}
	if s.CurrentFileIndex < 0 || s.CurrentFileIndex > s.TotalFiles {
		return fmt.Errorf("%w: cursor %d outside [0, %d]", ErrInvalidInput, s.CurrentFileIndex, s.TotalFiles)
	}
	if s.Progress < 0 || s.Progress > 1 {
		return fmt.Errorf("%w: progress %.2f outside [0, 1]", ErrInvalidInput, s.Progress)
	}
	if s.Status == StatusCompleted && s.Progress != 1.0 {
		return fmt.Errorf("%w: completed with progress %.2f", ErrInvalidInput, s.Progress)
	}
	return nil
}

// Status messages. Parameters are part of the contract; wording is not.

// MessageStarting is shown once a start request is accepted.
func MessageStarting() string {
	return "Starting processing"
}

// MessageProcessing reports the file being handled, 1-based.
func MessageProcessing(filename string, current, total int) string {
	return fmt.Sprintf("Processing %s (%d/%d)", filename, current, total)
}

// MessageCompleted is shown when the queue is exhausted.
func MessageCompleted() string {
	return "Processing completed"
}

// MessageSkipped reports a file passed over without indexing.
func MessageSkipped(filename, reason string) string {
	return fmt.Sprintf("Skipped %s (%s)", filename, reason)
}

// MessageIndexed reports a successfully indexed file.
func MessageIndexed(filename string, chunks int) string {
	return fmt.Sprintf("Processed %s (%d chunks)", filename, chunks)
}

// MessageFailed reports a file whose indexing failed.
func MessageFailed(filename, reason string) string {
	return fmt.Sprintf("Failed to process %s: %s", filename, reason)
}

// MessageRemoved reports files dropped from the queue.
func MessageRemoved(n int) string {
	return fmt.Sprintf("Cancelled processing for %d file(s)", n)
}
