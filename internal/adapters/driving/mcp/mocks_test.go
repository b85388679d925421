package mcp

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer      domain.Answer
	history     []domain.Message
	err         error
	lastSession string
	lastAsk     string
}

func (m *mockChatService) Ask(_ context.Context, sessionID, question string) (domain.Answer, error) {
	m.lastSession = sessionID
	m.lastAsk = question
	return m.answer, m.err
}

func (m *mockChatService) History(_ context.Context, sessionID string) ([]domain.Message, error) {
	m.lastSession = sessionID
	return m.history, m.err
}

func (m *mockChatService) Summary(_ context.Context, _ string) (domain.ConversationSummary, error) {
	return domain.ConversationSummary{Total: len(m.history)}, m.err
}

func (m *mockChatService) Clear(_ context.Context, sessionID string) error {
	m.lastSession = sessionID
	return m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	files   []string
	info    *domain.FileInfo
	stats   domain.KnowledgeStats
	removed string
	err     error
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

func (m *mockKnowledgeService) Inspect(_ context.Context, _ int) ([]domain.IndexedChunk, error) {
	return nil, m.err
}

func (m *mockKnowledgeService) RemoveFile(_ context.Context, filename string) (bool, error) {
	m.removed = filename
	return true, m.err
}

func (m *mockKnowledgeService) Clear(_ context.Context) (bool, error) {
	return true, m.err
}

// mockIngestion is a mock implementation of driving.IngestionService.
type mockIngestion struct {
	state domain.ProcessingState
	err   error
}

func (m *mockIngestion) Start(_ context.Context, _ []domain.Upload) (domain.ProcessingState, error) {
	return m.state, m.err
}

func (m *mockIngestion) ProcessNext(_ context.Context, _ []domain.Upload) (driving.TickResult, error) {
	return driving.TickResult{Outcome: driving.TickIdle, State: m.state}, m.err
}

func (m *mockIngestion) UpdateFiles(_ context.Context, _ []domain.Upload) ([]string, error) {
	return nil, m.err
}

func (m *mockIngestion) Cancel(_ context.Context, _ string) (bool, error) {
	return false, m.err
}

func (m *mockIngestion) Reset(_ context.Context) error {
	return m.err
}

func (m *mockIngestion) IsProcessing(_ context.Context) bool {
	return m.state.Status.IsActive()
}

func (m *mockIngestion) State(_ context.Context) (domain.ProcessingState, error) {
	return m.state, m.err
}

// mockSessions is a mock implementation of driving.SessionRegistry.
type mockSessions struct {
	ingestion   *mockIngestion
	lastSession string
}

func (m *mockSessions) Ingestion(sessionID string) driving.IngestionService {
	m.lastSession = sessionID
	return m.ingestion
}

func (m *mockSessions) CancelAll(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}
