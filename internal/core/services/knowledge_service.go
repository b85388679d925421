package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// KnowledgeService exposes the knowledge base to driving adapters.
// Destructive operations cancel every active ingestion first.
type KnowledgeService struct {
	kb       *KnowledgeBase
	sessions driving.SessionRegistry
}

// NewKnowledgeService creates a knowledge service.
func NewKnowledgeService(kb *KnowledgeBase, sessions driving.SessionRegistry) *KnowledgeService {
	return &KnowledgeService{kb: kb, sessions: sessions}
}

// Stats aggregates the knowledge base contents.
func (s *KnowledgeService) Stats(ctx context.Context) (domain.KnowledgeStats, error) {
	return s.kb.Statistics(ctx)
}

// ListFiles returns indexed filenames sorted.
func (s *KnowledgeService) ListFiles(ctx context.Context) ([]string, error) {
	return s.kb.ListFiles(ctx)
}

// FileInfo describes one indexed file.
func (s *KnowledgeService) FileInfo(ctx context.Context, filename string) (*domain.FileInfo, error) {
	return s.kb.FileInfo(ctx, filename)
}

// IsIndexed reports whether any chunk carries the filename.
func (s *KnowledgeService) IsIndexed(ctx context.Context, filename string) (bool, error) {
	return s.kb.Exists(ctx, filename)
}

// Inspect returns up to limit stored chunks.
func (s *KnowledgeService) Inspect(ctx context.Context, limit int) ([]domain.IndexedChunk, error) {
	return s.kb.Sample(ctx, limit)
}

// RemoveFile cancels active ingestion and removes the file's chunks.
func (s *KnowledgeService) RemoveFile(ctx context.Context, filename string) (bool, error) {
	if filename == "" {
		return false, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if _, err := s.sessions.CancelAll(ctx, domain.CancelReasonRemovingFile); err != nil {
		return false, fmt.Errorf("remove %s: %w", filename, err)
	}
	return s.kb.RemoveByFilename(ctx, filename)
}

// Clear cancels active ingestion and removes every chunk.
func (s *KnowledgeService) Clear(ctx context.Context) (bool, error) {
	if _, err := s.sessions.CancelAll(ctx, domain.CancelReasonClearing); err != nil {
		return false, fmt.Errorf("clear: %w", err)
	}
	return s.kb.ClearAll(ctx)
}
