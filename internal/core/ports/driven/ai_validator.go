package driven

import (
	"context"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// AIConfigValidator checks provider configurations by contacting the backend.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil if the provider answers or is not configured.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateGeneration pings the generation provider.
	// Returns nil if the provider answers or is not configured.
	ValidateGeneration(ctx context.Context, settings *domain.GenerationSettings) error
}
