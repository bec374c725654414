// Package ai provides factory functions for creating embedding and
// generation adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/throttle"
	anthropicllm "github.com/custodia-labs/troubleshoot/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/troubleshoot/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/troubleshoot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/troubleshoot/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
// Returns the embedder if successful, or an error with guidance.
func CreateAndValidateEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	emb, err := CreateEmbedder(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'troubleshoot settings set embedding.provider ...' to fix",
			domain.ErrEmbeddingFailure, err)
	}
	if emb == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := emb.Ping(pingCtx); err != nil {
		emb.Close()
		return nil, fmt.Errorf("%w: embedder unreachable (%w). Check embedding.base_url or set embedding.provider to local",
			domain.ErrEmbeddingFailure, err)
	}

	return emb, nil
}

// CreateAndValidateGenerationClient creates a generation client and
// validates connectivity.
func CreateAndValidateGenerationClient(
	ctx context.Context,
	settings *domain.GenerationSettings,
) (driven.GenerationClient, error) {
	client, err := CreateGenerationClient(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'troubleshoot settings set generation.provider ...' to fix",
			domain.ErrGenerationBackend, err)
	}
	if client == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("backend unreachable: %w", err)
	}

	return client, nil
}

// CreateEmbedder creates the embedder named by settings, throttled when
// settings.RequestsPerSecond is positive. Returns nil if the provider is
// not configured.
func CreateEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var emb driven.Embedder
	switch settings.Provider {
	case domain.AIProviderLocal:
		emb = hashing.New(dimensions(settings))

	case domain.AIProviderOllama:
		emb = ollamaembed.New(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions(settings),
		})

	case domain.AIProviderOpenAI:
		emb = openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions(settings),
		})

	case domain.AIProviderGemini:
		g, err := geminiembed.New(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Dimensions: dimensions(settings),
		})
		if err != nil {
			return nil, err
		}
		emb = g

	default:
		return nil, fmt.Errorf("%s does not support embeddings, use local, ollama, openai or gemini", settings.Provider)
	}

	return throttle.Wrap(emb, throttle.Config{RequestsPerSecond: settings.RequestsPerSecond}), nil
}

// dimensions returns the configured dimension override, falling back to
// the known dimension of the model. Zero means learn from the backend.
func dimensions(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

// CreateGenerationClient creates the generation client named by settings.
// Returns nil if the provider is not configured.
func CreateGenerationClient(ctx context.Context, settings *domain.GenerationSettings) (driven.GenerationClient, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.New(openaillm.Config{
			APIKey:        settings.APIKey,
			BaseURL:       settings.BaseURL,
			Model:         settings.Model,
			Timeout:       settings.Timeout,
			StreamTimeout: settings.StreamTimeout,
		}), nil

	case domain.AIProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL:       settings.BaseURL,
			Model:         settings.Model,
			Timeout:       settings.Timeout,
			StreamTimeout: settings.StreamTimeout,
		}), nil

	case domain.AIProviderAnthropic:
		return anthropicllm.New(anthropicllm.Config{
			APIKey:        settings.APIKey,
			BaseURL:       settings.BaseURL,
			Model:         settings.Model,
			MaxTokens:     settings.MaxTokens,
			Timeout:       settings.Timeout,
			StreamTimeout: settings.StreamTimeout,
		})

	case domain.AIProviderGemini:
		return geminillm.New(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("%s does not support generation, use openai, ollama, anthropic or gemini", settings.Provider)
	}
}
