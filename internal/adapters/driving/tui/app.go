package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	chatView      *chat.View
	documentsView *documents.View

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application. It opens on the chat view.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s, ports.Ingest != nil),
		chatView:    chat.NewView(s, km, ports.Assistant, ports.Session),
		currentView: messages.ViewChat,
	}
	if ports.Ingest != nil {
		a.documentsView = documents.NewView(s, km, ports.Ingest)
	}
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	if a.documentsView != nil {
		a.documentsView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("troubleshoot"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ReplyChunk, messages.ReplyDone:
		// Replies keep streaming while another view is shown.
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentRemoved:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
	}
	return a, cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewDocuments:
		if a.documentsView == nil {
			return nil
		}
		a.currentView = view
		return a.documentsView.Load()
	case messages.ViewChat:
		a.currentView = view
		return a.chatView.Init()
	case messages.ViewMenu:
		a.currentView = view
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewDocuments:
		if a.documentsView != nil {
			return a.documentsView.View()
		}
	}
	return a.chatView.View()
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.WithContext(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Run builds and starts a TUI for the given ports.
func Run(ctx context.Context, ports *Ports) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
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
	if a.documentsView != nil {
		a.documentsView.SetDimensions(width, height)
	}
}
