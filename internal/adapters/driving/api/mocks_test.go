package api

import (
	"context"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

type mockChatService struct {
	answer  domain.Answer
	history []domain.Message
	err     error
	asked   string
	cleared string
}

func (m *mockChatService) Ask(_ context.Context, _, question string) (domain.Answer, error) {
	m.asked = question
	return m.answer, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Message, error) {
	return m.history, m.err
}

func (m *mockChatService) Summary(_ context.Context, _ string) (domain.ConversationSummary, error) {
	return domain.ConversationSummary{Total: len(m.history)}, m.err
}

func (m *mockChatService) Clear(_ context.Context, sessionID string) error {
	m.cleared = sessionID
	return m.err
}

type mockKnowledgeService struct {
	files    []string
	info     *domain.FileInfo
	stats    domain.KnowledgeStats
	chunks   []domain.IndexedChunk
	err      error
	removed  string
	limit    int
	verified bool
}

func (m *mockKnowledgeService) Stats(_ context.Context) (domain.KnowledgeStats, error) {
	return m.stats, m.err
}

func (m *mockKnowledgeService) ListFiles(_ context.Context) ([]string, error) {
	return m.files, m.err
}

func (m *mockKnowledgeService) FileInfo(_ context.Context, _ string) (*domain.FileInfo, error) {
	return m.info, m.err
}

func (m *mockKnowledgeService) IsIndexed(_ context.Context, _ string) (bool, error) {
	return m.info != nil, m.err
}

func (m *mockKnowledgeService) Inspect(_ context.Context, limit int) ([]domain.IndexedChunk, error) {
	m.limit = limit
	return m.chunks, m.err
}

func (m *mockKnowledgeService) RemoveFile(_ context.Context, filename string) (bool, error) {
	m.removed = filename
	return m.verified, m.err
}

func (m *mockKnowledgeService) Clear(_ context.Context) (bool, error) {
	return m.verified, m.err
}

type mockIngestion struct {
	mu        sync.Mutex
	state     domain.ProcessingState
	startErr  error
	started   []domain.Upload
	cancelled bool
	tick      driving.TickResult
	tickErr   error
	removed   []string
	live      []string
}

func (m *mockIngestion) Start(_ context.Context, uploads []domain.Upload) (domain.ProcessingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return domain.ProcessingState{}, m.startErr
	}
	m.started = uploads
	m.state.Status = domain.StatusStarting
	m.state.TotalFiles = len(uploads)
	return m.state, nil
}

func (m *mockIngestion) ProcessNext(_ context.Context, live []domain.Upload) (driving.TickResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = m.live[:0]
	for _, u := range live {
		m.live = append(m.live, u.Name)
	}
	if m.tick.Outcome == "" {
		return driving.TickResult{Outcome: driving.TickIdle, State: m.state}, m.tickErr
	}
	return m.tick, m.tickErr
}

func (m *mockIngestion) UpdateFiles(_ context.Context, _ []domain.Upload) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed, nil
}

func (m *mockIngestion) Cancel(_ context.Context, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := m.state.Status.IsActive()
	m.cancelled = active
	if active {
		m.state.Status = domain.StatusCancelled
	}
	return active, nil
}

func (m *mockIngestion) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status.IsActive() {
		return domain.ErrProcessingInProgress
	}
	m.state = domain.ProcessingState{Status: domain.StatusIdle}
	return nil
}

func (m *mockIngestion) IsProcessing(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status.IsActive()
}

func (m *mockIngestion) State(_ context.Context) (domain.ProcessingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

type mockSessions struct {
	ingestion *mockIngestion
}

func (m *mockSessions) Ingestion(_ string) driving.IngestionService {
	return m.ingestion
}

func (m *mockSessions) CancelAll(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

// mockRunner records runs and blocks until its context ends when block is set.
type mockRunner struct {
	mu    sync.Mutex
	runs  int
	exits int
	block bool
}

func (m *mockRunner) Run(
	ctx context.Context,
	ingestion driving.IngestionService,
	_ driven.UploadSource,
	_ driving.TickFunc,
) (domain.ProcessingState, error) {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.exits++
		m.mu.Unlock()
	}()

	if m.block {
		<-ctx.Done()
		return domain.ProcessingState{}, ctx.Err()
	}
	return ingestion.State(ctx)
}

func (m *mockRunner) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func (m *mockRunner) Exits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exits
}
