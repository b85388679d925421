package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func turns(n int) []domain.Message {
	msgs := make([]domain.Message, n)
	for i := range msgs {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msgs[i] = domain.Message{Role: role, Content: fmt.Sprintf("m%d", i)}
	}
	return msgs
}

func TestConversationManager_Defaults(t *testing.T) {
	m := NewConversationManager(0, 0)
	assert.Equal(t, domain.DefaultMaxHistory, m.MaxHistory())
}

func TestConversationManager_Summary(t *testing.T) {
	m := NewConversationManager(15, 6)

	assert.Equal(t, domain.ConversationSummary{}, m.Summary(nil))
	assert.Equal(t, domain.ConversationSummary{Total: 5, User: 3, Assistant: 2}, m.Summary(turns(5)))
}

func TestConversationManager_Truncate(t *testing.T) {
	m := NewConversationManager(15, 6)

	tests := []struct {
		name      string
		n         int
		truncate  bool
		wantLen   int
		wantFirst string
	}{
		{"under limit", 10, false, 10, "m0"},
		{"at limit", 15, false, 15, "m0"},
		{"over limit", 16, true, 15, "m1"},
		{"far over limit", 30, true, 15, "m15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := turns(tt.n)
			assert.Equal(t, tt.truncate, m.ShouldTruncate(history))

			got := m.Truncate(history)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].Content)
			assert.Equal(t, history[len(history)-1], got[len(got)-1])
		})
	}
}

func TestConversationManager_TruncateCopies(t *testing.T) {
	m := NewConversationManager(2, 6)
	history := turns(3)

	got := m.Truncate(history)
	got[0].Content = "changed"
	assert.Equal(t, "m1", history[1].Content)
}

func TestConversationManager_FormatHistory(t *testing.T) {
	m := NewConversationManager(15, 6)

	assert.Empty(t, m.FormatHistory(nil))

	got := m.FormatHistory(turns(2))
	assert.Equal(t, "User: m0\nAssistant: m1", got)

	got = m.FormatHistory(turns(8))
	assert.Equal(t, "User: m2\nAssistant: m3\nUser: m4\nAssistant: m5\nUser: m6\nAssistant: m7", got)
}
