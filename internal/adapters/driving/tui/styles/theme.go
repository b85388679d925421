// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Theme defines the colour palette for the TUI.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color

	// User and Assistant colour the conversation speakers.
	User      lipgloss.Color
	Assistant lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Success:    lipgloss.Color("#A6E3A1"),
		Warning:    lipgloss.Color("#F9E2AF"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
		User:       lipgloss.Color("#89B4FA"),
		Assistant:  lipgloss.Color("#CBA6F7"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the question input.
	InputField lipgloss.Style

	// StatusBar renders the bottom line.
	StatusBar lipgloss.Style

	// UserLabel and AssistantLabel prefix transcript messages.
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	// Source renders the filenames an answer was grounded on.
	Source lipgloss.Style

	// Degraded renders fallback answers.
	Degraded lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),
		Help:    lipgloss.NewStyle().Foreground(theme.Muted),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(theme.User),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(theme.Assistant),
		Source:         lipgloss.NewStyle().Italic(true).Foreground(theme.Secondary),
		Degraded:       lipgloss.NewStyle().Foreground(theme.Warning),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// RoleLabel renders the transcript label of a speaker.
func (s *Styles) RoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return s.UserLabel.Render(role.Label() + ":")
	case domain.RoleAssistant:
		return s.AssistantLabel.Render(role.Label() + ":")
	default:
		return s.Muted.Render(string(role) + ":")
	}
}

// Outcome renders a per-file ingestion outcome.
func (s *Styles) Outcome(outcome domain.FileOutcome) string {
	switch outcome {
	case domain.OutcomeIndexed:
		return s.Success.Render(string(outcome))
	case domain.OutcomeSkipped:
		return s.Warning.Render(string(outcome))
	case domain.OutcomeFailed:
		return s.Error.Render(string(outcome))
	default:
		return s.Muted.Render(string(outcome))
	}
}
