// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	hints     []key.Binding
	state     State
	message   string
	summarize bool
	turns     int
	width     int
}

// NewBar creates a status bar showing the given keybinding hints.
func NewBar(s *styles.Styles, hints []key.Binding) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if hints == nil {
		hints = keymap.DefaultKeyMap().ShortHelp()
	}

	return &Bar{
		styles: s,
		hints:  hints,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var parts []string
	if s.summarize {
		parts = append(parts, s.styles.Badge.Render("SUMMARIZE"))
	}

	switch s.state {
	case StateThinking:
		parts = append(parts, s.styles.Muted.Render("Thinking..."))
	case StateError:
		if s.message != "" {
			parts = append(parts, s.styles.Error.Render("Error: "+s.message))
		} else {
			parts = append(parts, s.styles.Error.Render("Error"))
		}
	case StateReady:
		switch {
		case s.message != "":
			parts = append(parts, s.styles.Normal.Render(s.message))
		case s.turns > 0:
			parts = append(parts, s.styles.Muted.Render(fmt.Sprintf("%d turns", s.turns)))
		default:
			parts = append(parts, s.styles.Muted.Render("Ready"))
		}
	}
	return strings.Join(parts, " ")
}

func (s *Bar) renderRight() string {
	hints := make([]string, 0, len(s.hints))
	for _, b := range s.hints {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetSummarize shows or hides the summarize badge.
func (s *Bar) SetSummarize(on bool) {
	s.summarize = on
}

// SetTurns sets the number of recorded conversation turns.
func (s *Bar) SetTurns(n int) {
	s.turns = n
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.turns = 0
}
