// Package tui provides the interactive terminal chat for the assistant.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Assistant answers prompts. Required.
	Assistant driving.AssistantService

	// Ingest lists and removes documents. Optional; the documents view
	// is hidden without it.
	Ingest driving.IngestService

	// Session carries the conversation. Nil starts a fresh one.
	Session *domain.Session
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
