package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
)

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), true)

	require.NotNil(t, view)
	require.Len(t, view.Items(), 3)
	assert.Equal(t, "Chat", view.Items()[0].Label)
	assert.Equal(t, "Documents", view.Items()[1].Label)
	assert.True(t, view.Items()[2].Quit)
	assert.Equal(t, 0, view.Selected())
}

func TestNewView_WithoutDocuments(t *testing.T) {
	view := NewView(nil, false)

	require.Len(t, view.Items(), 2)
	assert.Equal(t, "Chat", view.Items()[0].Label)
	assert.True(t, view.Items()[1].Quit)
}

func TestView_Init(t *testing.T) {
	assert.Nil(t, NewView(nil, true).Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, true)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_Navigation(t *testing.T) {
	view := NewView(nil, true)

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, view.Selected(), "stays at top")

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, view.Selected(), "stays at bottom")

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, view.Selected())
}

func TestView_Update_SelectView(t *testing.T) {
	view := NewView(nil, true)
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_Update_SelectQuit(t *testing.T) {
	view := NewView(nil, false)
	view.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_Update_QKeyQuits(t *testing.T) {
	view := NewView(nil, true)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil, true)
	assert.Equal(t, "Initialising...", view.View())

	view.SetDimensions(80, 24)
	out := view.View()

	assert.Contains(t, out, "Troubleshoot")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "Chat")
	assert.Contains(t, out, "Documents")
}
