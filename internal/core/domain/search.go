package domain

import "strings"

// SnippetKind identifies where a retrieved snippet came from.
type SnippetKind string

// Snippet kinds.
const (
	SnippetChunk SnippetKind = "chunk"
	SnippetRow   SnippetKind = "row"
)

// Snippet is one entry of a retrieval result.
type Snippet struct {
	Kind SnippetKind `json:"kind"`

	// Source is the document name for chunks or the table name for rows.
	Source string `json:"source"`

	// Text is the chunk or flattened row.
	Text string `json:"text"`

	// Distance is set for chunks only.
	Distance float32 `json:"distance,omitempty"`
}

// DefaultTopK is the number of nearest chunks fetched per document.
const DefaultTopK = 3

// ContextSeparator joins snippets in the context string.
const ContextSeparator = "\n\n"

// JoinSnippets renders snippets as the context string handed to the model.
func JoinSnippets(snippets []Snippet) string {
	texts := make([]string, len(snippets))
	for i := range snippets {
		texts[i] = snippets[i].Text
	}
	return strings.Join(texts, ContextSeparator)
}
