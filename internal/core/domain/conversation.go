package domain

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ConversationTurn is a single role/content pair. Callers may only supply
// user and assistant turns; the system turn is added by the assembler.
type ConversationTurn struct {
	Role    Role   `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content"`
}

// PromptMode selects how the prompt payload is assembled.
type PromptMode int

const (
	// ModeNormal sends system prompt, history and retrieved context.
	ModeNormal PromptMode = iota

	// ModeSummarize sends a single summarisation instruction.
	ModeSummarize
)

// String returns the string representation.
func (m PromptMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeSummarize:
		return "summarize"
	default:
		return unknownDescription
	}
}

// Session is the conversation state of one chat surface.
type Session struct {
	ID      string
	History []ConversationTurn

	// Summarize forces summarize mode for every prompt.
	Summarize bool
}

// Add appends a turn. Only user and assistant turns are recorded.
func (s *Session) Add(role Role, content string) {
	if role != RoleUser && role != RoleAssistant {
		return
	}
	s.History = append(s.History, ConversationTurn{Role: role, Content: content})
}

// Reset clears history and the summarize toggle.
func (s *Session) Reset() {
	s.History = nil
	s.Summarize = false
}
