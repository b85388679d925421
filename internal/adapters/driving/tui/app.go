package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/files"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/knowledge"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView *menu.View
	chatView *chat.View

	// filesView and knowledgeView are nil when their ports are not wired.
	filesView     *files.View
	knowledgeView *knowledge.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	return NewAppWithContext(context.Background(), ports)
}

// NewAppWithContext creates a new TUI application bound to ctx. Service
// calls made by the views use ctx.
func NewAppWithContext(ctx context.Context, ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingChatService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	a := &App{
		ports:       ports,
		ctx:         ctx,
		styles:      s,
		keymap:      keymap.DefaultKeyMap(),
		chatView:    chat.NewView(ctx, s, ports.Chat, ports.SessionID),
		currentView: messages.ViewMenu,
	}

	items := make([]menu.Item, 0, len(menu.DefaultItems()))
	for _, item := range menu.DefaultItems() {
		switch item.View {
		case messages.ViewFiles:
			if !ports.hasIngestion() {
				continue
			}
		case messages.ViewKnowledge:
			if ports.Knowledge == nil {
				continue
			}
		case messages.ViewMenu, messages.ViewChat, messages.ViewHelp:
		}
		items = append(items, item)
	}
	a.menuView = menu.NewView(s, items, ports.SessionID)

	if ports.hasIngestion() {
		a.filesView = files.NewView(
			ctx, s, ports.Sessions.Ingestion(ports.SessionID), ports.Uploads, ports.TickInterval,
		)
	}
	if ports.Knowledge != nil {
		a.knowledgeView = knowledge.NewView(ctx, s, ports.Knowledge)
	}

	return a, nil
}

// Init implements tea.Model. A run interrupted by a previous exit resumes
// in the background.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("docchat")}
	if a.filesView != nil {
		cmds = append(cmds, a.filesView.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewFiles:
			if a.filesView != nil {
				return a, a.filesView.Init()
			}
		case messages.ViewKnowledge:
			if a.knowledgeView != nil {
				return a, a.knowledgeView.Init()
			}
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.HistoryLoaded, messages.AnswerReceived, messages.HistoryCleared, spinner.TickMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	// Ingestion runs on regardless of the active view.
	case messages.UploadsLoaded, messages.IngestionStarted, messages.IngestionTick,
		messages.IngestionTicked, messages.IngestionCancelled, progress.FrameMsg:
		if a.filesView == nil {
			return a, nil
		}
		a.filesView, cmd = a.filesView.Update(msg)
		return a, cmd

	case messages.StatsLoaded, messages.FileRemoved, messages.KnowledgeCleared:
		if a.knowledgeView == nil {
			return a, nil
		}
		a.knowledgeView, cmd = a.knowledgeView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewFiles:
		if a.filesView != nil {
			a.filesView, cmd = a.filesView.Update(msg)
		}
	case messages.ViewKnowledge:
		if a.knowledgeView != nil {
			a.knowledgeView, cmd = a.knowledgeView.Update(msg)
		}
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewFiles:
		if a.filesView != nil {
			return a.filesView.View()
		}
	case messages.ViewKnowledge:
		if a.knowledgeView != nil {
			return a.knowledgeView.View()
		}
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	if a.filesView != nil {
		a.filesView.SetDimensions(width, height)
	}
	if a.knowledgeView != nil {
		a.knowledgeView.SetDimensions(width, height)
	}
}
