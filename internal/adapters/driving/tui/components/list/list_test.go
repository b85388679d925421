package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(labels ...string) []Item {
	out := make([]Item, 0, len(labels))
	for _, l := range labels {
		out = append(out, Item{Label: l})
	}
	return out
}

var (
	down = tea.KeyMsg{Type: tea.KeyDown}
	up   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
)

func TestNew(t *testing.T) {
	l := New(nil, 0)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
	assert.Equal(t, 1, l.height)

	_, ok := l.Selected()
	assert.False(t, ok)
}

func TestList_EmptyView(t *testing.T) {
	l := New(nil, 5)
	l.SetEmptyText("No files indexed.")

	assert.Contains(t, l.View(), "No files indexed.")
}

func TestList_Navigate(t *testing.T) {
	l := New(nil, 5)
	l.SetItems(items("a.pdf", "b.txt", "c.txt"))

	l.Update(down)
	l.Update(down)
	l.Update(down)
	assert.Equal(t, 2, l.Index())

	item, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "c.txt", item.Label)

	l.Update(up)
	assert.Equal(t, 1, l.Index())

	_, cmd := l.Update(tea.WindowSizeMsg{})
	assert.Nil(t, cmd)
}

func TestList_SetItemsClampsCursor(t *testing.T) {
	l := New(nil, 5)
	l.SetItems(items("a", "b", "c"))
	l.Update(down)
	l.Update(down)

	l.SetItems(items("a"))

	assert.Equal(t, 0, l.Index())
}

func TestList_ScrollWindow(t *testing.T) {
	l := New(nil, 2)
	l.SetItems([]Item{
		{Label: "a.pdf", Detail: "3 chunks"},
		{Label: "b.txt"},
		{Label: "c.txt"},
	})

	view := l.View()
	assert.Contains(t, view, "a.pdf")
	assert.Contains(t, view, "3 chunks")
	assert.NotContains(t, view, "c.txt")

	l.Update(down)
	l.Update(down)

	view = l.View()
	assert.NotContains(t, view, "a.pdf")
	assert.Contains(t, view, "b.txt")
	assert.Contains(t, view, "c.txt")
}

func TestList_SetHeight(t *testing.T) {
	l := New(nil, 1)
	l.SetItems(items("a", "b", "c"))
	l.Update(down)
	l.Update(down)

	l.SetHeight(3)
	assert.Contains(t, l.View(), "c")

	l.SetHeight(0)
	assert.Equal(t, 1, l.height)
}
