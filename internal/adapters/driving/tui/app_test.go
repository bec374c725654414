package tui

import (
	"context"
	"iter"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

type mockAssistant struct {
	driving.AssistantService
	reply string
}

func (m *mockAssistant) Respond(_ context.Context, session *domain.Session, prompt string) iter.Seq[string] {
	return func(yield func(string) bool) {
		defer func() {
			session.Add(domain.RoleUser, prompt)
			session.Add(domain.RoleAssistant, m.reply)
		}()
		yield(m.reply)
	}
}

type mockIngest struct {
	driving.IngestService
	docs []driving.DocumentSummary
}

func (m *mockIngest) Documents(_ context.Context) []driving.DocumentSummary {
	return m.docs
}

func (m *mockIngest) TableRowCount() int {
	return 0
}

func newTestApp(t *testing.T, withIngest bool) *App {
	t.Helper()
	ports := &Ports{Assistant: &mockAssistant{reply: "Check the fuse."}}
	if withIngest {
		ports.Ingest = &mockIngest{docs: []driving.DocumentSummary{{Name: "pump.pdf", Chunks: 3}}}
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func TestNewApp_StartsInChat(t *testing.T) {
	app := newTestApp(t, true)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.True(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingAssistantService)
	assert.Nil(t, app)
}

func TestNewApp_UsesGivenSession(t *testing.T) {
	session := &domain.Session{ID: "s-1", Summarize: true}
	app, err := NewApp(&Ports{Assistant: &mockAssistant{}, Session: session})

	require.NoError(t, err)
	assert.Same(t, session, app.Chat().Session())
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, false)

	assert.NotNil(t, app.Init())
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, err := NewApp(&Ports{Assistant: &mockAssistant{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Assistant: &mockAssistant{}})
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 90, Height: 20})

	assert.True(t, app.Ready())
	assert.Equal(t, 90, app.width)
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, false)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ChatRoundTrip(t *testing.T) {
	app := newTestApp(t, false)

	app.Chat().Input().SetValue("E42?")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for i := 0; app.Chat().Busy(); i++ {
		require.Less(t, i, 10)
		app.Update(app.Chat().Next()())
	}

	assert.Contains(t, app.View(), "Check the fuse.")
	assert.Len(t, app.Chat().Session().History, 2)
}

func TestApp_NavigateToDocuments(t *testing.T) {
	app := newTestApp(t, true)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Contains(t, app.View(), "pump.pdf")
}

func TestApp_DocumentsUnavailable(t *testing.T) {
	app := newTestApp(t, false)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_EscFromChatShowsMenu(t *testing.T) {
	app := newTestApp(t, true)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.Contains(t, app.View(), "Documents")
}

func TestApp_MenuBackToChat(t *testing.T) {
	app := newTestApp(t, false)
	app.Update(messages.ViewChanged{View: messages.ViewMenu})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
}
