package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// QueryService answers questions from the knowledge base.
type QueryService interface {
	// Answer builds a grounded prompt from retrieved context and history and
	// generates an answer. Failures degrade to a fallback answer.
	Answer(ctx context.Context, question string, history []domain.Message) domain.Answer
}

// ChatService runs a conversation per session.
type ChatService interface {
	// Ask answers the question with the session history and records both turns.
	// Errors only come from history persistence.
	Ask(ctx context.Context, sessionID, question string) (domain.Answer, error)

	// History returns the session messages in order.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Summary counts the session messages by role.
	Summary(ctx context.Context, sessionID string) (domain.ConversationSummary, error)

	// Clear removes the session history.
	Clear(ctx context.Context, sessionID string) error
}
