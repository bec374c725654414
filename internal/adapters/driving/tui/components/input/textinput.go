// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
)

// MaxHistory bounds the number of remembered prompts.
const MaxHistory = 100

// PromptInput is a single-line prompt with shell-style history recall.
type PromptInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while recalling; len(history) means the draft.
	cursor int
	draft  string
}

// NewPromptInput creates a new prompt input component.
func NewPromptInput(s *styles.Styles) *PromptInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Describe the fault or ask a question..."
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 50

	return &PromptInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (p *PromptInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the input.
func (p *PromptInput) View() string {
	label := p.styles.UserLabel.Render("> ")
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Submit returns the trimmed value, records it in history and clears the
// field. Blank input returns "" and is not recorded.
func (p *PromptInput) Submit() string {
	value := strings.TrimSpace(p.textinput.Value())
	p.textinput.Reset()
	p.draft = ""

	if value == "" {
		p.cursor = len(p.history)
		return ""
	}

	if n := len(p.history); n == 0 || p.history[n-1] != value {
		p.history = append(p.history, value)
		if len(p.history) > MaxHistory {
			p.history = p.history[len(p.history)-MaxHistory:]
		}
	}
	p.cursor = len(p.history)
	return value
}

// Prev recalls the previous prompt. The unsent draft is kept so Next can
// return to it.
func (p *PromptInput) Prev() {
	if p.cursor == 0 || len(p.history) == 0 {
		return
	}
	if p.cursor == len(p.history) {
		p.draft = p.textinput.Value()
	}
	p.cursor--
	p.setValue(p.history[p.cursor])
}

// Next moves toward the most recent prompt and finally the draft.
func (p *PromptInput) Next() {
	if p.cursor >= len(p.history) {
		return
	}
	p.cursor++
	if p.cursor == len(p.history) {
		p.setValue(p.draft)
		return
	}
	p.setValue(p.history[p.cursor])
}

func (p *PromptInput) setValue(v string) {
	p.textinput.SetValue(v)
	p.textinput.CursorEnd()
}

// History returns the remembered prompts, oldest first.
func (p *PromptInput) History() []string {
	return p.history
}

// Value returns the current input value.
func (p *PromptInput) Value() string {
	return p.textinput.Value()
}

// SetValue sets the input value.
func (p *PromptInput) SetValue(value string) {
	p.setValue(value)
}

// Focus sets focus on the input.
func (p *PromptInput) Focus() tea.Cmd {
	return p.textinput.Focus()
}

// Blur removes focus from the input.
func (p *PromptInput) Blur() {
	p.textinput.Blur()
}

// Focused returns whether the input is focused.
func (p *PromptInput) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the input.
func (p *PromptInput) SetWidth(width int) {
	p.width = width
	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.textinput.Width = inputWidth
}

// Width returns the current width.
func (p *PromptInput) Width() int {
	return p.width
}
