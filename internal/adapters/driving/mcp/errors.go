// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI clients query the ingested manuals and fault tables.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")

// ErrIngestUnavailable is returned by ingest tools when no ingest service is wired.
var ErrIngestUnavailable = errors.New("mcp: ingestion is not enabled")
