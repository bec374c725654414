// Package throttle wraps an Embedder with a token-bucket rate limit so
// bulk ingestion does not overrun hosted embedding quotas.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultBackoff is the pause applied after a rate-limit error when the
// backend gave no retry hint.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst. Defaults to 1.
	BurstSize int

	// Backoff is the pause after domain.ErrRateLimited. Defaults to DefaultBackoff.
	Backoff time.Duration
}

// Embedder delays calls to the wrapped embedder to stay within the rate.
type Embedder struct {
	next    driven.Embedder
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap returns next limited to cfg. A non-positive rate returns next unchanged.
func Wrap(next driven.Embedder, cfg Config) driven.Embedder {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Embedder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
	}
}

// Embed waits for a token, then embeds texts.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := e.next.Embed(ctx, texts)
	e.record(err)
	return vecs, err
}

// EmbedOne waits for a token, then embeds text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	vec, err := e.next.EmbedOne(ctx, text)
	e.record(err)
	return vec, err
}

// wait honours any backoff, then the token bucket.
func (e *Embedder) wait(ctx context.Context) error {
	e.mu.Lock()
	retryAt := e.retryAt
	e.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

func (e *Embedder) record(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	e.mu.Lock()
	e.retryAt = time.Now().Add(e.backoff)
	e.mu.Unlock()
}

// Dimensions returns the wrapped embedder's dimension.
func (e *Embedder) Dimensions() int { return e.next.Dimensions() }

// ModelName returns the wrapped embedder's model.
func (e *Embedder) ModelName() string { return e.next.ModelName() }

// Ping pings the wrapped embedder without consuming a token.
func (e *Embedder) Ping(ctx context.Context) error { return e.next.Ping(ctx) }

// Close closes the wrapped embedder.
func (e *Embedder) Close() error { return e.next.Close() }
