package mcp

import (
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant answers questions and retrieves context.
	Assistant driving.AssistantService

	// Ingest loads and lists documents. Optional: without it the server
	// exposes query tools only.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
