package driven

import "github.com/custodia-labs/troubleshoot/internal/core/domain"

// Chunker splits extracted text into the ordered chunks of a document.
type Chunker interface {
	// Chunks returns the chunks of text owned by documentName.
	// Empty text yields no chunks.
	Chunks(documentName, text string) []domain.Chunk
}
