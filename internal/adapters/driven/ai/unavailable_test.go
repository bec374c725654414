package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

func TestUnavailableEmbedder(t *testing.T) {
	ctx := context.Background()
	emb := NewUnavailableEmbedder("text-embedding-004", errors.New("no key"))

	_, err := emb.Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
	assert.Contains(t, err.Error(), "no key")

	_, err = emb.EmbedOne(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
	assert.ErrorIs(t, emb.Ping(ctx), domain.ErrEmbeddingFailure)

	assert.Equal(t, "text-embedding-004", emb.ModelName())
	assert.Zero(t, emb.Dimensions())
	assert.NoError(t, emb.Close())
}

func TestOpenEmbedder_MissingKey(t *testing.T) {
	settings := &domain.EmbeddingSettings{
		Provider: domain.AIProviderGemini,
		Model:    "text-embedding-004",
	}

	emb, err := OpenEmbedder(context.Background(), settings)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini is not configured")
	require.IsType(t, &UnavailableEmbedder{}, emb)
	_, embedErr := emb.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, embedErr, domain.ErrEmbeddingFailure)
}

func TestOpenEmbedder_Local(t *testing.T) {
	settings := &domain.EmbeddingSettings{Provider: domain.AIProviderLocal, Model: "hashing-384"}

	emb, err := OpenEmbedder(context.Background(), settings)

	require.NoError(t, err)
	assert.IsType(t, &hashing.Embedder{}, emb)
}
