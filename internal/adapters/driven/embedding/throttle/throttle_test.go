package throttle

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

type countingEmbedder struct {
	*hashing.Embedder
	calls atomic.Int32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Embedder.Embed(ctx, texts)
}

func TestWrap_DisabledReturnsNext(t *testing.T) {
	next := hashing.New(8)

	assert.Same(t, next, Wrap(next, Config{}))
}

func TestEmbedder_PassesThrough(t *testing.T) {
	next := &countingEmbedder{Embedder: hashing.New(8)}
	e := Wrap(next, Config{RequestsPerSecond: 1000, BurstSize: 10})

	vecs, err := e.Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 8, e.Dimensions())
	assert.Equal(t, "hashing-8", e.ModelName())
	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}

func TestEmbedder_WaitsForTokens(t *testing.T) {
	next := &countingEmbedder{Embedder: hashing.New(8)}
	e := Wrap(next, Config{RequestsPerSecond: 20, BurstSize: 1})

	start := time.Now()
	for range 3 {
		_, err := e.EmbedOne(context.Background(), "x")
		require.NoError(t, err)
	}

	// two waits of ~50ms after the initial token
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestEmbedder_ContextCancelledWhileWaiting(t *testing.T) {
	e := Wrap(hashing.New(8), Config{RequestsPerSecond: 0.001, BurstSize: 1})
	_, err := e.EmbedOne(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = e.EmbedOne(ctx, "second")
	assert.Error(t, err)
}

func TestEmbedder_BacksOffAfterRateLimit(t *testing.T) {
	next := &countingEmbedder{
		Embedder: hashing.New(8),
		err:      fmt.Errorf("status 429: %w", domain.ErrRateLimited),
	}
	e := Wrap(next, Config{RequestsPerSecond: 1000, BurstSize: 10, Backoff: time.Hour})

	_, err := e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Embed(ctx, []string{"x"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), next.calls.Load())
}
