package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure FileProcessor implements the interface.
var _ driving.IngestionService = (*FileProcessor)(nil)

// errFileTimedOut marks a file whose indexing exceeded the per-file timeout.
var errFileTimedOut = errors.New(domain.ReasonTimedOut)

// IndexChecker reports whether a filename is already indexed.
type IndexChecker interface {
	Exists(ctx context.Context, filename string) (bool, error)
}

// FileIndexer indexes a single upload.
type FileIndexer interface {
	Index(ctx context.Context, upload domain.Upload) (domain.IndexReport, error)
}

// FileProcessor is the ingestion state machine of one session.
//
// State is loaded from and saved to the state store on every operation, so a
// host that re-runs from scratch between ticks resumes where it left off.
// Start, ProcessNext, UpdateFiles, Cancel and Reset are serialised by mu;
// State and IsProcessing read the store directly and never wait behind an
// in-flight file.
type FileProcessor struct {
	sessionID   string
	states      driven.ProcessingStateStore
	index       IndexChecker
	indexer     FileIndexer
	fileTimeout time.Duration

	mu sync.Mutex
}

// ProcessorOption configures a FileProcessor.
type ProcessorOption func(*FileProcessor)

// WithFileTimeout bounds indexing a single file.
func WithFileTimeout(d time.Duration) ProcessorOption {
	return func(p *FileProcessor) {
		if d > 0 {
			p.fileTimeout = d
		}
	}
}

// NewFileProcessor creates the state machine for a session.
func NewFileProcessor(
	sessionID string,
	states driven.ProcessingStateStore,
	index IndexChecker,
	indexer FileIndexer,
	opts ...ProcessorOption,
) *FileProcessor {
	p := &FileProcessor{
		sessionID:   sessionID,
		states:      states,
		index:       index,
		indexer:     indexer,
		fileTimeout: domain.DefaultFileTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionID returns the owning session.
func (p *FileProcessor) SessionID() string {
	return p.sessionID
}

// Start queues the uploads that are not yet indexed.
// Duplicate names are queued once. A start from a finished run discards it.
func (p *FileProcessor) Start(ctx context.Context, uploads []domain.Upload) (domain.ProcessingState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.load(ctx)
	if err != nil {
		return domain.ProcessingState{}, err
	}
	if state.Status.IsActive() {
		return state.Clone(), domain.ErrProcessingInProgress
	}
	if len(uploads) == 0 {
		return state.Clone(), domain.ErrNoFiles
	}

	queue := make([]string, 0, len(uploads))
	seen := make(map[string]struct{}, len(uploads))
	for _, u := range uploads {
		if _, dup := seen[u.Name]; dup {
			continue
		}
		seen[u.Name] = struct{}{}

		indexed, err := p.index.Exists(ctx, u.Name)
		if err != nil {
			return state.Clone(), fmt.Errorf("start: %w", err)
		}
		if indexed {
			logger.Debug("Not queueing %s: already indexed", u.Name)
			continue
		}
		queue = append(queue, u.Name)
	}
	if len(queue) == 0 {
		return state.Clone(), domain.ErrAllFilesIndexed
	}

	state.Reset()
	state.Status = domain.StatusStarting
	state.FilesToProcess = queue
	state.TotalFiles = len(queue)
	state.Message = domain.MessageStarting()

	if err := p.save(ctx, state); err != nil {
		return domain.ProcessingState{}, err
	}

	logger.Info("Session %s: queued %d of %d files", p.sessionID, len(queue), len(uploads))
	return state.Clone(), nil
}

// ProcessNext handles at most one queued file.
//
// The file at the cursor is looked up in live, not in the set given to
// Start. It is skipped when it is no longer uploaded, has an unsupported
// type or is already indexed. Otherwise it is indexed under the per-file
// timeout. The cursor advances whether the file succeeds or fails, unless
// another writer changed the stored run while the file was in flight.
func (p *FileProcessor) ProcessNext(ctx context.Context, live []domain.Upload) (driving.TickResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.load(ctx)
	if err != nil {
		return driving.TickResult{}, err
	}
	if !state.Status.IsActive() {
		return driving.TickResult{Outcome: driving.TickIdle, State: state.Clone()}, nil
	}

	if state.Status == domain.StatusStarting {
		state.Status = domain.StatusProcessing
		state.CurrentFileIndex = 0
		state.Progress = 0
	}

	if state.CurrentFileIndex >= len(state.FilesToProcess) {
		state.Status = domain.StatusCompleted
		state.Progress = 1.0
		state.CurrentFilename = ""
		state.Message = domain.MessageCompleted()
		if err := p.save(ctx, state); err != nil {
			return driving.TickResult{}, err
		}
		logger.Info("Session %s: completed (%d indexed, %d failed, %d skipped)", p.sessionID,
			state.Count(domain.OutcomeIndexed), state.Count(domain.OutcomeFailed), state.Count(domain.OutcomeSkipped))
		return driving.TickResult{Outcome: driving.TickCompleted, State: state.Clone()}, nil
	}

	cursor := state.CurrentFileIndex
	filename := state.FilesToProcess[cursor]
	state.CurrentFilename = filename
	state.Progress = float64(cursor+1) / float64(state.TotalFiles)
	state.Message = domain.MessageProcessing(filename, cursor+1, state.TotalFiles)
	if err := p.save(ctx, state); err != nil {
		return driving.TickResult{}, err
	}

	upload, reason, err := p.eligibility(ctx, filename, live)
	if err != nil {
		state.Status = domain.StatusError
		state.Message = fmt.Sprintf("Error checking %s: %v", filename, err)
		if saveErr := p.save(ctx, state); saveErr != nil {
			logger.Warn("Session %s: saving error state: %v", p.sessionID, saveErr)
		}
		return driving.TickResult{Outcome: driving.TickError, State: state.Clone()}, fmt.Errorf("process %s: %w", filename, err)
	}

	if reason != "" {
		result := domain.FileResult{Filename: filename, Outcome: domain.OutcomeSkipped, Reason: reason}
		state.CurrentFileIndex++
		state.Message = domain.MessageSkipped(filename, reason)
		state.Results = append(state.Results, result)
		if err := p.save(ctx, state); err != nil {
			return driving.TickResult{}, err
		}
		logger.Debug("Session %s: %s", p.sessionID, state.Message)
		return driving.TickResult{Outcome: driving.TickSkipped, File: &result, State: state.Clone()}, nil
	}

	started := time.Now()
	report, indexErr := p.indexWithTimeout(ctx, upload)
	if indexErr != nil && ctx.Err() != nil {
		// The host is shutting down; leave the cursor on this file so a
		// resumed run picks it up again.
		return driving.TickResult{}, ctx.Err()
	}

	// The store may be shared with another process that cancelled or
	// reconciled the run while the file was in flight. Its write wins.
	stored, changed, err := p.reload(ctx, state)
	if err != nil {
		return driving.TickResult{}, err
	}
	if changed {
		logger.Info("Session %s: state changed while indexing %s; keeping %s", p.sessionID, filename, stored.Status)
		if !stored.Status.IsActive() {
			return driving.TickResult{Outcome: driving.TickIdle, State: stored.Clone()}, nil
		}
		return driving.TickResult{Outcome: driving.TickStale, State: stored.Clone()}, nil
	}

	result := domain.FileResult{Filename: filename, Duration: time.Since(started)}
	outcome := driving.TickIndexed
	if indexErr != nil {
		result.Outcome = domain.OutcomeFailed
		result.Reason = failureReason(indexErr)
		state.Message = domain.MessageFailed(filename, result.Reason)
		outcome = driving.TickFailed
		logger.Warn("Session %s: %s", p.sessionID, state.Message)
	} else {
		result.Outcome = domain.OutcomeIndexed
		result.Chunks = report.Stats.Count
		state.Message = domain.MessageIndexed(filename, result.Chunks)
		logger.Debug("Session %s: %s", p.sessionID, state.Message)
	}
	state.CurrentFileIndex++
	state.Results = append(state.Results, result)

	if err := p.save(ctx, state); err != nil {
		return driving.TickResult{}, err
	}
	return driving.TickResult{Outcome: outcome, File: &result, State: state.Clone()}, nil
}

// UpdateFiles reconciles the queue with the live upload set.
//
// Removed names are dropped with survivors kept in order. The cursor moves
// to the number of survivors that preceded it, which is the new position of
// the file it pointed at when that file survives.
func (p *FileProcessor) UpdateFiles(ctx context.Context, live []domain.Upload) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Status.IsActive() {
		return nil, nil
	}

	present := make(map[string]struct{}, len(live))
	for _, u := range live {
		present[u.Name] = struct{}{}
	}

	var survivors, removed []string
	cursor := 0
	for i, name := range state.FilesToProcess {
		if _, ok := present[name]; !ok {
			removed = append(removed, name)
			continue
		}
		survivors = append(survivors, name)
		if i < state.CurrentFileIndex {
			cursor++
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if len(survivors) == 0 {
		state.Status = domain.StatusCancelled
		state.CurrentFilename = ""
		state.Message = domain.CancelReasonAllRemoved
	} else {
		state.FilesToProcess = survivors
		state.TotalFiles = len(survivors)
		state.CurrentFileIndex = min(cursor, len(survivors))
		state.Progress = float64(state.CurrentFileIndex) / float64(state.TotalFiles)
		state.Message = domain.MessageRemoved(len(removed))
	}

	if err := p.save(ctx, state); err != nil {
		return nil, err
	}
	logger.Info("Session %s: dropped %d file(s) from queue: %v", p.sessionID, len(removed), removed)
	return removed, nil
}

// Cancel stops an active run. The cursor stays where it is.
func (p *FileProcessor) Cancel(ctx context.Context, reason string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.load(ctx)
	if err != nil {
		return false, err
	}
	if !state.Status.IsActive() {
		return false, nil
	}

	if reason == "" {
		reason = domain.CancelReasonDefault
	}
	state.Status = domain.StatusCancelled
	state.CurrentFilename = ""
	state.Message = reason

	if err := p.save(ctx, state); err != nil {
		return false, err
	}
	logger.Info("Session %s: %s", p.sessionID, reason)
	return true, nil
}

// Reset returns a finished run to idle.
func (p *FileProcessor) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.load(ctx)
	if err != nil {
		return err
	}
	if state.Status.IsActive() {
		return domain.ErrProcessingInProgress
	}

	state.Reset()
	return p.save(ctx, state)
}

// IsProcessing reports whether a run is active.
func (p *FileProcessor) IsProcessing(ctx context.Context) bool {
	state, err := p.load(ctx)
	if err != nil {
		return false
	}
	return state.Status.IsActive()
}

// State returns a snapshot of the current state.
func (p *FileProcessor) State(ctx context.Context) (domain.ProcessingState, error) {
	state, err := p.load(ctx)
	if err != nil {
		return domain.ProcessingState{}, err
	}
	return state.Clone(), nil
}

// eligibility returns the upload to index, or a skip reason.
func (p *FileProcessor) eligibility(ctx context.Context, filename string, live []domain.Upload) (domain.Upload, string, error) {
	upload, ok := domain.FindUpload(live, filename)
	if !ok {
		return domain.Upload{}, domain.ReasonNoLongerPresent, nil
	}
	if !upload.IsSupported() {
		return domain.Upload{}, domain.ReasonUnsupported, nil
	}

	indexed, err := p.index.Exists(ctx, filename)
	if err != nil {
		return domain.Upload{}, "", err
	}
	if indexed {
		return domain.Upload{}, domain.ReasonAlreadyIndexed, nil
	}
	return upload, "", nil
}

// indexWithTimeout runs the indexer under the per-file timeout. Work that
// ignores its context is abandoned when the deadline passes.
func (p *FileProcessor) indexWithTimeout(ctx context.Context, upload domain.Upload) (domain.IndexReport, error) {
	fileCtx, cancel := context.WithTimeout(ctx, p.fileTimeout)
	defer cancel()

	type outcome struct {
		report domain.IndexReport
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := p.indexer.Index(fileCtx, upload)
		done <- outcome{report: report, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(fileCtx.Err(), context.DeadlineExceeded) {
			return o.report, errFileTimedOut
		}
		return o.report, o.err
	case <-fileCtx.Done():
		if ctx.Err() != nil {
			return domain.IndexReport{}, ctx.Err()
		}
		return domain.IndexReport{}, errFileTimedOut
	}
}

func failureReason(err error) string {
	if errors.Is(err, errFileTimedOut) {
		return domain.ReasonTimedOut
	}
	return err.Error()
}

// reload returns the stored state and whether its status, queue or cursor
// differ from expected.
func (p *FileProcessor) reload(ctx context.Context, expected *domain.ProcessingState) (*domain.ProcessingState, bool, error) {
	stored, err := p.load(ctx)
	if err != nil {
		return nil, false, err
	}
	changed := stored.Status != expected.Status ||
		stored.CurrentFileIndex != expected.CurrentFileIndex ||
		!slices.Equal(stored.FilesToProcess, expected.FilesToProcess)
	return stored, changed, nil
}

func (p *FileProcessor) load(ctx context.Context) (*domain.ProcessingState, error) {
	state, err := p.states.Load(ctx, p.sessionID)
	if err != nil {
		return nil, fmt.Errorf("load processing state: %w", err)
	}
	state.SessionID = p.sessionID
	return state, nil
}

func (p *FileProcessor) save(ctx context.Context, state *domain.ProcessingState) error {
	if err := p.states.Save(ctx, state); err != nil {
		return fmt.Errorf("save processing state: %w", err)
	}
	return nil
}
