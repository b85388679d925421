package tui

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

type mockChatService struct {
	history []domain.Message
	answer  domain.Answer
}

func (m *mockChatService) Ask(context.Context, string, string) (domain.Answer, error) {
	return m.answer, nil
}

func (m *mockChatService) History(context.Context, string) ([]domain.Message, error) {
	return m.history, nil
}

func (m *mockChatService) Summary(context.Context, string) (domain.ConversationSummary, error) {
	return domain.ConversationSummary{}, nil
}

func (m *mockChatService) Clear(context.Context, string) error { return nil }

type mockKnowledgeService struct {
	stats domain.KnowledgeStats
}

func (m *mockKnowledgeService) Stats(context.Context) (domain.KnowledgeStats, error) {
	return m.stats, nil
}

func (m *mockKnowledgeService) ListFiles(context.Context) ([]string, error) {
	return m.stats.Filenames(), nil
}

func (m *mockKnowledgeService) FileInfo(context.Context, string) (*domain.FileInfo, error) {
	return nil, domain.ErrNotFound
}

func (m *mockKnowledgeService) IsIndexed(context.Context, string) (bool, error) { return false, nil }

func (m *mockKnowledgeService) Inspect(context.Context, int) ([]domain.IndexedChunk, error) {
	return nil, nil
}

func (m *mockKnowledgeService) RemoveFile(context.Context, string) (bool, error) { return true, nil }

func (m *mockKnowledgeService) Clear(context.Context) (bool, error) { return true, nil }

type mockIngestion struct {
	state domain.ProcessingState
}

func (m *mockIngestion) Start(context.Context, []domain.Upload) (domain.ProcessingState, error) {
	return m.state, nil
}

func (m *mockIngestion) ProcessNext(context.Context, []domain.Upload) (driving.TickResult, error) {
	return driving.TickResult{Outcome: driving.TickIdle, State: m.state}, nil
}

func (m *mockIngestion) UpdateFiles(context.Context, []domain.Upload) ([]string, error) {
	return nil, nil
}

func (m *mockIngestion) Cancel(context.Context, string) (bool, error) { return false, nil }

func (m *mockIngestion) Reset(context.Context) error { return nil }

func (m *mockIngestion) IsProcessing(context.Context) bool { return m.state.Status.IsActive() }

func (m *mockIngestion) State(context.Context) (domain.ProcessingState, error) { return m.state, nil }

type mockSessions struct {
	ingestion *mockIngestion
	requested []string
}

func (m *mockSessions) Ingestion(sessionID string) driving.IngestionService {
	m.requested = append(m.requested, sessionID)
	return m.ingestion
}

func (m *mockSessions) CancelAll(context.Context, string) ([]string, error) { return nil, nil }

type mockSource struct {
	uploads []domain.Upload
}

func (m *mockSource) Uploads(context.Context) ([]domain.Upload, error) {
	return m.uploads, nil
}

func fullPorts() *Ports {
	return &Ports{
		Chat:      &mockChatService{},
		Knowledge: &mockKnowledgeService{},
		Sessions:  &mockSessions{ingestion: &mockIngestion{state: domain.ProcessingState{Status: domain.StatusIdle}}},
		Uploads:   &mockSource{},
	}
}
