// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewDocuments lists ingested documents.
	ViewDocuments
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// PromptSubmitted is sent when the user sends a chat prompt.
type PromptSubmitted struct {
	Prompt string
}

// ReplyChunk carries one streamed fragment of the assistant reply.
type ReplyChunk struct {
	Text string
}

// ReplyDone marks the end of the assistant reply.
type ReplyDone struct{}

// SessionReset signals the conversation history was cleared.
type SessionReset struct{}

// SummarizeToggled reports the new summarize mode.
type SummarizeToggled struct {
	On bool
}

// DocumentsLoaded carries the ingested document listing.
type DocumentsLoaded struct {
	Documents []driving.DocumentSummary
	TableRows int
	Err       error
}

// DocumentRemoved signals a document was removed.
type DocumentRemoved struct {
	Name string
	Err  error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
