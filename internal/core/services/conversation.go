package services

import (
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ConversationManager applies the history limits of a conversation.
// It holds no messages itself; callers pass the history in.
type ConversationManager struct {
	maxHistory    int
	contextWindow int
}

// NewConversationManager creates a manager keeping at most maxHistory
// messages and formatting the last contextWindow of them for prompts.
// Non-positive values fall back to the defaults.
func NewConversationManager(maxHistory, contextWindow int) *ConversationManager {
	if maxHistory <= 0 {
		maxHistory = domain.DefaultMaxHistory
	}
	if contextWindow <= 0 {
		contextWindow = domain.DefaultHistoryWindow
	}
	return &ConversationManager{
		maxHistory:    maxHistory,
		contextWindow: contextWindow,
	}
}

// MaxHistory returns the retained message limit.
func (m *ConversationManager) MaxHistory() int {
	return m.maxHistory
}

// Summary counts messages by role.
func (m *ConversationManager) Summary(history []domain.Message) domain.ConversationSummary {
	s := domain.ConversationSummary{Total: len(history)}
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleUser:
			s.User++
		case domain.RoleAssistant:
			s.Assistant++
		}
	}
	return s
}

// ShouldTruncate reports whether history exceeds the retained limit.
func (m *ConversationManager) ShouldTruncate(history []domain.Message) bool {
	return len(history) > m.maxHistory
}

// Truncate returns the newest messages within the limit, in order.
func (m *ConversationManager) Truncate(history []domain.Message) []domain.Message {
	start := 0
	if len(history) > m.maxHistory {
		start = len(history) - m.maxHistory
	}
	return append([]domain.Message(nil), history[start:]...)
}

// FormatHistory renders the last messages of the context window as
// "User: ..." and "Assistant: ..." lines.
func (m *ConversationManager) FormatHistory(history []domain.Message) string {
	if len(history) == 0 {
		return ""
	}

	start := 0
	if len(history) > m.contextWindow {
		start = len(history) - m.contextWindow
	}

	lines := make([]string, 0, len(history)-start)
	for _, msg := range history[start:] {
		lines = append(lines, msg.Role.Label()+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
