// Package knowledge provides the knowledge base view for the TUI.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// action is a destructive operation awaiting confirmation.
type action int

const (
	actionNone action = iota
	actionRemove
	actionClear
)

// View lists indexed files and removes them on confirmation.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	knowledge driving.KnowledgeService

	files     *list.List
	statusBar *status.Bar

	stats   domain.KnowledgeStats
	pending action
	target  string
	err     error
	width   int
	height  int
}

// NewView creates a knowledge base view.
func NewView(ctx context.Context, s *styles.Styles, knowledge driving.KnowledgeService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	files := list.New(s, 10)
	files.SetEmptyText("No files indexed.")
	sb := status.NewBar(s, nil)
	sb.SetHints(status.HintsKnowledge)

	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		knowledge: knowledge,
		files:     files,
		statusBar: sb,
		width:     80,
		height:    24,
	}
}

// Init loads the knowledge base statistics.
func (v *View) Init() tea.Cmd {
	return v.loadStats()
}

// Update handles messages for the knowledge view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.stats = msg.Stats
		items := make([]list.Item, 0, msg.Stats.UniqueFiles)
		for _, name := range msg.Stats.Filenames() {
			items = append(items, list.Item{
				Label:  name,
				Detail: fmt.Sprintf("%d chunks", msg.Stats.ChunksPerFile[name]),
			})
		}
		v.files.SetItems(items)
		return v, nil

	case messages.FileRemoved:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.report(msg.Verified, fmt.Sprintf("Removed %s", msg.Filename))
		return v, v.loadStats()

	case messages.KnowledgeCleared:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.report(msg.Verified, "Knowledge base cleared")
		return v, v.loadStats()

	case tea.KeyMsg:
		if v.pending != actionNone {
			return v, v.confirm(msg)
		}
		switch {
		case key.Matches(msg, v.keymap.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case key.Matches(msg, v.keymap.Reload):
			return v, v.loadStats()
		case key.Matches(msg, v.keymap.Remove):
			if item, ok := v.files.Selected(); ok {
				v.pending = actionRemove
				v.target = item.Label
			}
			return v, nil
		case key.Matches(msg, v.keymap.ClearAll):
			if v.stats.TotalDocuments > 0 {
				v.pending = actionClear
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.files, cmd = v.files.Update(msg)
		return v, cmd
	}

	return v, nil
}

func (v *View) confirm(msg tea.KeyMsg) tea.Cmd {
	pending, target := v.pending, v.target
	v.pending = actionNone
	v.target = ""

	if msg.String() != "y" {
		return nil
	}
	switch pending {
	case actionRemove:
		return v.removeFile(target)
	case actionClear:
		return v.clear()
	}
	return nil
}

// View renders the knowledge view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Knowledge Base"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf(
		"%d chunks across %d files", v.stats.TotalDocuments, v.stats.UniqueFiles,
	)))
	b.WriteString("\n\n")
	b.WriteString(v.files.View())
	b.WriteString("\n\n")

	switch v.pending {
	case actionRemove:
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s? [y/n]", v.target)))
		b.WriteString("\n")
	case actionClear:
		b.WriteString(v.styles.Warning.Render("Remove every indexed file? [y/n]"))
		b.WriteString("\n")
	case actionNone:
	}

	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusBar.SetWidth(width)
	v.files.SetHeight(height - 8)
}

// Stats returns the last loaded statistics.
func (v *View) Stats() domain.KnowledgeStats {
	return v.stats
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func (v *View) report(verified bool, done string) {
	if !verified {
		v.statusBar.SetState(status.StateError)
		v.statusBar.SetMessage(done + ", but chunks were left behind")
		return
	}
	v.statusBar.SetState(status.StateReady)
	v.statusBar.SetMessage(done)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusBar.SetState(status.StateError)
	v.statusBar.SetMessage(err.Error())
}

func (v *View) loadStats() tea.Cmd {
	ctx, knowledge := v.ctx, v.knowledge
	return func() tea.Msg {
		stats, err := knowledge.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

func (v *View) removeFile(filename string) tea.Cmd {
	ctx, knowledge := v.ctx, v.knowledge
	return func() tea.Msg {
		verified, err := knowledge.RemoveFile(ctx, filename)
		return messages.FileRemoved{Filename: filename, Verified: verified, Err: err}
	}
}

func (v *View) clear() tea.Cmd {
	ctx, knowledge := v.ctx, v.knowledge
	return func() tea.Msg {
		verified, err := knowledge.Clear(ctx)
		return messages.KnowledgeCleared{Verified: verified, Err: err}
	}
}
