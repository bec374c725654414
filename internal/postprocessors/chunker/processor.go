// Package chunker splits extracted document text into fixed-size chunks.
package chunker

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// Processor splits text into fixed-width windows measured in characters
// (runes). Windows are contiguous and never overlap. There is no sentence
// or word boundary detection.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Size returns the configured chunk size.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Split returns the chunk texts for text. Empty input yields no chunks.
func (p *Processor) Split(text string) []string {
	return Split(text, p.chunkSize)
}

// Chunks splits text and wraps each window as a domain.Chunk owned by
// the named document, positioned in source order.
func (p *Processor) Chunks(documentName, text string) []domain.Chunk {
	parts := p.Split(text)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			ID:           uuid.New().String(),
			DocumentName: documentName,
			Content:      part,
			Position:     i,
		}
	}
	return chunks
}

// Split cuts text into contiguous windows of at most size characters.
// The final window may be shorter. Concatenating the result reproduces text.
func Split(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}

	// Byte offset of every rune start, plus len(text) as a sentinel.
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	runeCount := len(offsets)
	offsets = append(offsets, len(text))

	parts := make([]string, 0, runeCount/size+1)
	for start := 0; start < runeCount; start += size {
		end := start + size
		if end > runeCount {
			end = runeCount
		}
		parts = append(parts, text[offsets[start]:offsets[end]])
		if end == runeCount {
			break
		}
	}
	return parts
}
