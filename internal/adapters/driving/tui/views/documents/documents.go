// Package documents provides the ingested documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// ErrNoIngestService is reported when the view has no ingest service.
var ErrNoIngestService = errors.New("ingest service not available")

// View lists ingested documents and removes them on request.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	list   *list.DocumentList
	ingest driving.IngestService
	ctx    context.Context

	tableRows  int
	confirming string
	notice     string
	err        error
	loading    bool
	width      int
	height     int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, ingest driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		list:   list.NewDocumentList(s),
		ingest: ingest,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load returns a command that fetches the document listing.
func (v *View) Load() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.ingest == nil {
			return messages.DocumentsLoaded{Err: ErrNoIngestService}
		}
		return messages.DocumentsLoaded{
			Documents: v.ingest.Documents(v.ctx),
			TableRows: v.ingest.TableRowCount(),
		}
	}
}

func (v *View) remove(name string) tea.Cmd {
	return func() tea.Msg {
		if v.ingest == nil {
			return messages.DocumentRemoved{Name: name, Err: ErrNoIngestService}
		}
		return messages.DocumentRemoved{Name: name, Err: v.ingest.RemoveDocument(v.ctx, name)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming != "" {
			return v.handleConfirmKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetDocuments(msg.Documents)
			v.tableRows = msg.TableRows
		}
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Removed " + msg.Name
		return v, v.Load()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Refresh):
		v.notice = ""
		return v, v.Load()
	case key.Matches(msg, v.keymap.Remove):
		if doc := v.list.SelectedDocument(); doc != nil {
			v.confirming = doc.Name
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	name := v.confirming
	v.confirming = ""
	if key.Matches(msg, v.keymap.Confirm) {
		return v, v.remove(name)
	}
	return v, nil
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", v.list.Count())
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d table rows", v.tableRows)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	default:
		b.WriteString(v.list.View())
	}
	b.WriteString("\n\n")

	switch {
	case v.confirming != "":
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s? [y/N]", v.confirming)))
		b.WriteString("\n")
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	bindings := v.keymap.DocumentsHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-6)
}

// Confirming returns the name awaiting removal confirmation, if any.
func (v *View) Confirming() string {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
