// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// entry is one transcript line as shown, with answer metadata kept locally.
type entry struct {
	role     domain.Role
	content  string
	sources  []string
	degraded bool
}

// View is the conversation view: transcript, question input and status bar.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	chat      driving.ChatService
	sessionID string

	input      *input.QuestionInput
	statusBar  *status.Bar
	transcript viewport.Model
	spinner    spinner.Model
	markdown   *glamour.TermRenderer

	entries  []entry
	thinking bool
	err      error
	width    int
	height   int
}

// NewView creates a chat view for the session.
func NewView(ctx context.Context, s *styles.Styles, chat driving.ChatService, sessionID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	v := &View{
		ctx:        ctx,
		styles:     s,
		keymap:     keymap.DefaultKeyMap(),
		chat:       chat,
		sessionID:  sessionID,
		input:      input.NewQuestionInput(s),
		statusBar:  status.NewBar(s, nil),
		transcript: viewport.New(80, 16),
		spinner:    sp,
	}
	v.SetDimensions(80, 24)
	return v
}

// Init loads the session history.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.HistoryLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.entries = v.entries[:0]
		for _, m := range msg.Messages {
			v.entries = append(v.entries, entry{role: m.Role, content: m.Content})
		}
		v.refresh()
		return v, nil

	case messages.AnswerReceived:
		v.thinking = false
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.statusBar.Clear()
		v.entries = append(v.entries, entry{
			role:     domain.RoleAssistant,
			content:  msg.Answer.Text,
			sources:  msg.Answer.Sources,
			degraded: msg.Answer.Degraded,
		})
		v.refresh()
		return v, nil

	case messages.HistoryCleared:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.entries = nil
		v.statusBar.Clear()
		v.statusBar.SetMessage("Conversation cleared")
		v.refresh()
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case key.Matches(msg, v.keymap.ClearHistory):
		if v.thinking {
			return v, nil
		}
		return v, v.clearHistory()

	case key.Matches(msg, v.keymap.Send):
		if v.thinking {
			return v, nil
		}
		question, ok := v.input.Question()
		if !ok {
			return v, nil
		}
		v.input.Reset()
		v.thinking = true
		v.statusBar.SetState(status.StateThinking)
		v.entries = append(v.entries, entry{role: domain.RoleUser, content: question})
		v.refresh()
		return v, tea.Batch(v.ask(question), v.spinner.Tick)

	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Chat"))
	b.WriteString("\n\n")
	b.WriteString(v.transcript.View())
	b.WriteString("\n")
	if v.thinking {
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Thinking..."))
	}
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.statusBar.View())

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	if width != v.width || v.markdown == nil {
		v.markdown = newMarkdownRenderer(width)
	}
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.statusBar.SetWidth(width)

	// Title, spinner line, input box and status bar.
	transcriptHeight := height - 9
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.Width = width
	v.transcript.Height = transcriptHeight
	v.refresh()
}

// Thinking reports whether a question is awaiting its answer.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.render()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusBar.SetState(status.StateError)
	v.statusBar.SetMessage(err.Error())
}

func (v *View) refresh() {
	v.transcript.SetContent(v.render())
	v.transcript.GotoBottom()
}

func (v *View) render() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents to get started.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))
	parts := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		body := e.content
		switch {
		case e.degraded:
			body = v.styles.Degraded.Render(body)
		case e.role == domain.RoleAssistant:
			body = v.renderMarkdown(body)
		}
		text := v.styles.RoleLabel(e.role) + " " + body
		if len(e.sources) > 0 {
			text += "\n" + v.styles.Source.Render("Sources: "+strings.Join(e.sources, ", "))
		}
		parts = append(parts, wrap.Render(text))
	}
	return strings.Join(parts, "\n\n")
}

// renderMarkdown formats an answer, falling back to the raw text.
func (v *View) renderMarkdown(text string) string {
	if v.markdown == nil {
		return text
	}
	out, err := v.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// newMarkdownRenderer returns nil when no renderer can be built.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

func (v *View) loadHistory() tea.Cmd {
	ctx, chat, id := v.ctx, v.chat, v.sessionID
	return func() tea.Msg {
		msgs, err := chat.History(ctx, id)
		return messages.HistoryLoaded{Messages: msgs, Err: err}
	}
}

func (v *View) ask(question string) tea.Cmd {
	ctx, chat, id := v.ctx, v.chat, v.sessionID
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, id, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) clearHistory() tea.Cmd {
	ctx, chat, id := v.ctx, v.chat, v.sessionID
	return func() tea.Msg {
		return messages.HistoryCleared{Err: chat.Clear(ctx, id)}
	}
}
