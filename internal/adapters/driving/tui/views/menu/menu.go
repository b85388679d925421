// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool // If true, selecting this item quits the app
}

// DefaultItems returns the menu entries. Views whose ports are not
// wired are left out by the caller.
func DefaultItems() []Item {
	return []Item{
		{Label: "Chat", Description: "Ask questions about your documents", View: messages.ViewChat},
		{Label: "Files", Description: "Upload set and ingestion progress", View: messages.ViewFiles},
		{Label: "Knowledge Base", Description: "Indexed files and chunk counts", View: messages.ViewKnowledge},
		{Label: "Help", Description: "Keybindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View represents the main menu view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	items     []Item
	sessionID string
	selected  int
	width     int
	height    int
	ready     bool
}

// NewView creates a new menu view. A nil items slice uses DefaultItems.
func NewView(s *styles.Styles, items []Item, sessionID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if items == nil {
		items = DefaultItems()
	}

	return &View{
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		items:     items,
		sessionID: sessionID,
		width:     80,
		height:    24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case key.Matches(msg, v.keymap.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case key.Matches(msg, v.keymap.Send):
			if len(v.items) == 0 {
				return v, nil
			}
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}
		case msg.String() == "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("docchat"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Chat with your documents"))
	if v.sessionID != "" {
		b.WriteString(v.styles.Muted.Render("  session: " + v.sessionID))
	}
	b.WriteString("\n\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(item.Label))
			if item.Description != "" {
				b.WriteString("  " + v.styles.Muted.Render(item.Description))
			}
		} else {
			b.WriteString("  " + v.styles.Normal.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
