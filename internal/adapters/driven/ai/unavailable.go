package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure UnavailableEmbedder implements the interface.
var _ driven.Embedder = (*UnavailableEmbedder)(nil)

// UnavailableEmbedder stands in for a configured embedder that could not be
// built. Every call fails with ErrEmbeddingFailure, so ingestion aborts
// without publishing instead of storing vectors from another model.
type UnavailableEmbedder struct {
	model  string
	reason error
}

// NewUnavailableEmbedder creates an embedder that always reports reason.
func NewUnavailableEmbedder(model string, reason error) *UnavailableEmbedder {
	return &UnavailableEmbedder{model: model, reason: reason}
}

func (e *UnavailableEmbedder) err() error {
	return fmt.Errorf("%w: %s unavailable: %w", domain.ErrEmbeddingFailure, e.model, e.reason)
}

// Embed always fails.
func (e *UnavailableEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, e.err()
}

// EmbedOne always fails.
func (e *UnavailableEmbedder) EmbedOne(_ context.Context, _ string) ([]float32, error) {
	return nil, e.err()
}

// Dimensions is unknown.
func (e *UnavailableEmbedder) Dimensions() int { return 0 }

// ModelName returns the configured model.
func (e *UnavailableEmbedder) ModelName() string { return e.model }

// Ping always fails.
func (e *UnavailableEmbedder) Ping(_ context.Context) error { return e.err() }

// Close is a no-op.
func (e *UnavailableEmbedder) Close() error { return nil }

// OpenEmbedder builds the configured embedder. A provider that cannot be
// built, or lacks the API key it needs, yields an UnavailableEmbedder
// along with the reason.
func OpenEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	emb, err := CreateEmbedder(ctx, settings)
	if err == nil && emb == nil {
		err = fmt.Errorf("%s is not configured (missing API key?)", settings.Provider)
	}
	if err != nil {
		return NewUnavailableEmbedder(settings.Model, err), err
	}
	return emb, nil
}
