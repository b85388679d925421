// Package list provides a scrollable selection list for the TUI.
package list

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
)

// Item is a single row: a label and an optional right-hand detail.
type Item struct {
	Label  string
	Detail string
}

// List renders items with a cursor and keeps the cursor in view.
type List struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	offset   int
	height   int
	empty    string
}

// New creates an empty list showing at most height rows.
func New(s *styles.Styles, height int) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if height < 1 {
		height = 1
	}
	return &List{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		height: height,
		empty:  "Nothing here yet.",
	}
}

// SetItems replaces the rows and clamps the cursor.
func (l *List) SetItems(items []Item) {
	l.items = items
	l.clamp()
}

// Items returns the rows.
func (l *List) Items() []Item {
	return l.items
}

// SetEmptyText sets the text shown when there are no rows.
func (l *List) SetEmptyText(text string) {
	l.empty = text
}

// SetHeight sets the number of visible rows.
func (l *List) SetHeight(height int) {
	if height < 1 {
		height = 1
	}
	l.height = height
	l.clamp()
}

// Selected returns the selected row and false when the list is empty.
func (l *List) Selected() (Item, bool) {
	if len(l.items) == 0 {
		return Item{}, false
	}
	return l.items[l.selected], true
}

// Index returns the cursor position.
func (l *List) Index() int {
	return l.selected
}

// Update moves the cursor on up and down keys.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch {
	case key.Matches(keyMsg, l.keymap.Up):
		if l.selected > 0 {
			l.selected--
		}
	case key.Matches(keyMsg, l.keymap.Down):
		if l.selected < len(l.items)-1 {
			l.selected++
		}
	}
	l.clamp()
	return l, nil
}

// View renders the visible window of rows.
func (l *List) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.empty)
	}

	var b strings.Builder
	end := l.offset + l.height
	if end > len(l.items) {
		end = len(l.items)
	}
	for i := l.offset; i < end; i++ {
		item := l.items[i]
		if i == l.selected {
			b.WriteString("> " + l.styles.Selected.Render(item.Label))
		} else {
			b.WriteString("  " + l.styles.Normal.Render(item.Label))
		}
		if item.Detail != "" {
			b.WriteString("  " + l.styles.Muted.Render(item.Detail))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (l *List) clamp() {
	if l.selected >= len(l.items) {
		l.selected = len(l.items) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+l.height {
		l.offset = l.selected - l.height + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}
