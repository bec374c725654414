// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

const intro = "Describe a fault code, symptom or maintenance task.\n" +
	"Start a prompt with \"summarize\" or press ctrl+s to summarise the matching material."

// reserved is the number of rows used by the header, input and status bar.
const reserved = 8

type entry struct {
	role domain.Role
	text string
}

// View is the chat view: a scrolling transcript above a prompt input.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	statusbar *status.Bar
	viewport  viewport.Model
	spinner   spinner.Model

	assistant driving.AssistantService
	session   *domain.Session
	ctx       context.Context

	transcript []entry
	stream     <-chan string
	cancel     context.CancelFunc

	width  int
	height int
	ready  bool
}

// NewView creates a chat view bound to a session.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	assistant driving.AssistantService,
	session *domain.Session,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if session == nil {
		session = &domain.Session{}
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.AssistantLabel

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewPromptInput(s),
		statusbar: status.NewBar(s, km.ChatHelp()),
		viewport:  viewport.New(80, 16),
		spinner:   sp,
		assistant: assistant,
		session:   session,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for assistant calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReplyChunk:
		v.appendReply(msg.Text)
		return v, waitForChunk(v.stream)

	case messages.ReplyDone:
		v.finishReply()
		return v, nil

	case spinner.TickMsg:
		if !v.Busy() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

//nolint:gocyclo // flat key dispatch
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		if v.Busy() {
			v.cancel()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case key.Matches(msg, v.keymap.ScrollUp):
		v.viewport.HalfPageUp()
		return v, nil

	case key.Matches(msg, v.keymap.ScrollDown):
		v.viewport.HalfPageDown()
		return v, nil
	}

	if v.Busy() {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keymap.Send):
		prompt := v.input.Submit()
		if prompt == "" {
			return v, nil
		}
		return v, v.send(prompt)

	case key.Matches(msg, v.keymap.HistoryPrev):
		v.input.Prev()
		return v, nil

	case key.Matches(msg, v.keymap.HistoryNext):
		v.input.Next()
		return v, nil

	case key.Matches(msg, v.keymap.Summarize):
		v.session.Summarize = !v.session.Summarize
		v.statusbar.SetSummarize(v.session.Summarize)
		return v, nil

	case key.Matches(msg, v.keymap.Reset):
		v.Reset()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send starts a reply. Fragments are relayed from the assistant iterator
// through a channel so the Bubbletea loop never blocks on the backend.
func (v *View) send(prompt string) tea.Cmd {
	v.transcript = append(v.transcript,
		entry{role: domain.RoleUser, text: prompt},
		entry{role: domain.RoleAssistant},
	)
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	ch := make(chan string)
	v.stream = ch
	v.cancel = cancel

	go func() {
		defer close(ch)
		for token := range v.assistant.Respond(ctx, v.session, prompt) {
			select {
			case ch <- token:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tea.Batch(waitForChunk(ch), v.spinner.Tick)
}

func waitForChunk(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		token, ok := <-ch
		if !ok {
			return messages.ReplyDone{}
		}
		return messages.ReplyChunk{Text: token}
	}
}

func (v *View) appendReply(text string) {
	if n := len(v.transcript); n > 0 && v.transcript[n-1].role == domain.RoleAssistant {
		v.transcript[n-1].text += text
	}
	v.refresh()
}

func (v *View) finishReply() {
	if v.cancel != nil {
		v.cancel()
	}
	v.stream = nil
	v.cancel = nil

	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetTurns(len(v.session.History))
	if n := len(v.transcript); n > 0 && isErrorReply(v.transcript[n-1].text) {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage("generation backend unavailable")
	}
	v.refresh()
}

// isErrorReply matches the text the assistant renders for backend failures.
func isErrorReply(text string) bool {
	return strings.HasPrefix(text, "Error: ") || strings.Contains(text, "[Stream error: ")
}

// Next returns a command that waits for the next reply fragment, or nil
// when no reply is streaming.
func (v *View) Next() tea.Cmd {
	return waitForChunk(v.stream)
}

// Busy reports whether a reply is streaming.
func (v *View) Busy() bool {
	return v.stream != nil
}

// Reset clears the transcript and the session.
func (v *View) Reset() {
	v.session.Reset()
	v.transcript = nil
	v.statusbar.Clear()
	v.statusbar.SetSummarize(false)
	v.statusbar.SetMessage("History cleared")
	v.refresh()
}

func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render(intro)
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.transcript))
	for i, e := range v.transcript {
		var label string
		if e.role == domain.RoleUser {
			label = v.styles.UserLabel.Render("You")
		} else {
			label = v.styles.AssistantLabel.Render("Assistant")
		}

		text := e.text
		if text == "" && i == len(v.transcript)-1 && v.Busy() {
			text = v.spinner.View()
		}
		blocks = append(blocks, label+"\n"+wrap.Render(text))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Troubleshoot")
	if v.Busy() {
		header += " " + v.spinner.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-reserved, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Session returns the conversation state.
func (v *View) Session() *domain.Session {
	return v.session
}

// Transcript returns the rendered turns as plain text pairs.
func (v *View) Transcript() []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, len(v.transcript))
	for i, e := range v.transcript {
		turns[i] = domain.ConversationTurn{Role: e.role, Content: e.text}
	}
	return turns
}

// Input returns the prompt input.
func (v *View) Input() *input.PromptInput {
	return v.input
}
