package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Success))
	assert.NotEmpty(t, string(theme.Warning))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEmpty(t, string(theme.Border))
	assert.NotEmpty(t, string(theme.User))
	assert.NotEmpty(t, string(theme.Assistant))
}

func TestDefaultTheme_SpeakersAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	assert.NotEqual(t, theme.User, theme.Assistant)
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestDefaultStyles(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	assert.Equal(t, theme, styles.Theme())
	assert.NotEqual(t, lipgloss.Style{}, styles.Title)
	assert.NotEqual(t, lipgloss.Style{}, styles.InputField)
	assert.NotEqual(t, lipgloss.Style{}, styles.StatusBar)
	assert.NotEqual(t, lipgloss.Style{}, styles.UserLabel)
	assert.NotEqual(t, lipgloss.Style{}, styles.AssistantLabel)
	assert.NotEqual(t, lipgloss.Style{}, styles.Source)
	assert.NotEqual(t, lipgloss.Style{}, styles.Degraded)
}

func TestStyles_RoleLabel(t *testing.T) {
	styles := DefaultStyles()

	assert.Contains(t, styles.RoleLabel(domain.RoleUser), "User:")
	assert.Contains(t, styles.RoleLabel(domain.RoleAssistant), "Assistant:")
	assert.Contains(t, styles.RoleLabel(domain.Role("system")), "system:")
}

func TestStyles_Outcome(t *testing.T) {
	styles := DefaultStyles()

	for _, outcome := range []domain.FileOutcome{
		domain.OutcomeIndexed,
		domain.OutcomeSkipped,
		domain.OutcomeFailed,
		domain.FileOutcome("other"),
	} {
		t.Run(string(outcome), func(t *testing.T) {
			assert.Contains(t, styles.Outcome(outcome), string(outcome))
		})
	}
}
