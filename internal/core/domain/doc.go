// Package domain defines the core entities of the troubleshooting assistant.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a named, chunked text source (manual, log file)
//   - Chunk: a fixed-size slice of a document, the unit of retrieval
//   - TableRow: a flattened row from a CSV or spreadsheet upload
//   - ConversationTurn: one role/content pair of a chat
//   - RawDocument: uploaded bytes before extraction
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
