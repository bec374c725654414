package ai

import (
	"context"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks that configured providers answer.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding creates the embedder and pings it.
// Unconfigured settings have nothing to validate.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	emb, err := CreateAndValidateEmbedder(ctx, settings)
	if err != nil {
		return err
	}
	if emb != nil {
		emb.Close()
	}
	return nil
}

// ValidateGeneration creates the generation client and pings it.
func (v *ConfigValidator) ValidateGeneration(ctx context.Context, settings *domain.GenerationSettings) error {
	client, err := CreateAndValidateGenerationClient(ctx, settings)
	if err != nil {
		return err
	}
	if client != nil {
		client.Close()
	}
	return nil
}
