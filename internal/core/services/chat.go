package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService keeps a conversation per session and answers through the
// query service. Ask and Clear on one session are serialised so
// concurrent front ends append to the same history.
type ChatService struct {
	history      driven.HistoryStore
	query        driving.QueryService
	conversation *ConversationManager
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService creates a chat service.
func NewChatService(history driven.HistoryStore, query driving.QueryService, conversation *ConversationManager) *ChatService {
	return &ChatService{
		history:      history,
		query:        query,
		conversation: conversation,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Ask answers the question with the prior history, then records the
// question and the answer. History over the limit is truncated first.
func (c *ChatService) Ask(ctx context.Context, sessionID, question string) (domain.Answer, error) {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history, err := c.history.Load(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load history: %w", err)
	}
	if c.conversation.ShouldTruncate(history) {
		logger.Debug("Truncating history of %s from %d messages", sessionID, len(history))
		history = c.conversation.Truncate(history)
	}

	answer := c.query.Answer(ctx, question, history)

	history = append(history,
		domain.Message{Role: domain.RoleUser, Content: question, CreatedAt: c.now()},
		domain.Message{Role: domain.RoleAssistant, Content: answer.Text, CreatedAt: c.now()},
	)
	if err := c.history.Save(ctx, sessionID, history); err != nil {
		return answer, fmt.Errorf("save history: %w", err)
	}
	return answer, nil
}

// History returns the session messages in order.
func (c *ChatService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	history, err := c.history.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}

// Summary counts the session messages by role.
func (c *ChatService) Summary(ctx context.Context, sessionID string) (domain.ConversationSummary, error) {
	history, err := c.History(ctx, sessionID)
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	return c.conversation.Summary(history), nil
}

// Clear removes the session history.
func (c *ChatService) Clear(ctx context.Context, sessionID string) error {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := c.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (c *ChatService) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[sessionID] = lock
	}
	return lock
}
