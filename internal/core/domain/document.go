package domain

import "time"

// Document is a named text source after chunking and embedding.
// Re-ingesting a document under the same name replaces it wholesale.
type Document struct {
	// Name is the unique key of the document, usually the upload file name.
	Name string

	// URI is where the source bytes were read from, if known.
	URI string

	// Chunks is the ordered chunk sequence. Chunk i is vector i of the index.
	Chunks []Chunk

	// Metadata contains extraction details (mime type, page count).
	Metadata map[string]any

	// IngestedAt is when the current version of the document was built.
	IngestedAt time.Time
}

// ChunkCount returns the number of chunks in the document.
func (d *Document) ChunkCount() int {
	return len(d.Chunks)
}

// Chunk is a contiguous slice of a document's extracted text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentName links to the owning Document.
	DocumentName string

	// Content is the text of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector for Content. Empty until embedded.
	Embedding []float32
}

// ChunkMatch is a chunk returned from a nearest-neighbour search.
type ChunkMatch struct {
	Chunk Chunk

	// Distance is the L2 distance between the query and the chunk embedding.
	Distance float32
}
