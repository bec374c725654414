package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// GenerationClient talks to a remote chat-completion backend.
// Failures are returned as errors wrapping domain.ErrGenerationBackend;
// turning them into user-visible text is the caller's decision.
type GenerationClient interface {
	// Complete sends the messages and returns the full reply.
	Complete(ctx context.Context, messages []domain.ConversationTurn, opts GenerateOptions) (string, error)

	// Stream sends the messages and yields reply fragments as they arrive.
	// The sequence is finite and not restartable. A non-nil error ends it.
	Stream(ctx context.Context, messages []domain.ConversationTurn, opts GenerateOptions) iter.Seq2[string, error]

	// ModelName returns the model identifier sent with each request.
	ModelName() string

	// Ping validates that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the reply length. Zero lets the backend decide.
	MaxTokens int
}
