package driven

import "context"

// Embedder turns text into fixed-dimension vectors.
// Implementations must be deterministic for a fixed model: the same text
// always yields the same vector.
type Embedder interface {
	// Embed generates embeddings for a batch of texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne generates the embedding for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the size of the vectors this embedder produces.
	// Zero means unknown until the first call.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Ping validates that the embedder is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
