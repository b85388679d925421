package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the transcript label for the role.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return ""
	}
}

// Message is one turn of the conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary counts messages by role.
type ConversationSummary struct {
	Total     int `json:"total"`
	User      int `json:"user"`
	Assistant int `json:"assistant"`
}

// Answer is the result of a grounded question.
type Answer struct {
	// Text is the generated answer or a fallback apology.
	Text string `json:"text"`

	// Sources are the distinct filenames of the retrieved context.
	Sources []string `json:"sources,omitempty"`

	// Degraded is true when Text is a fallback rather than a generation.
	Degraded bool `json:"degraded"`
}
