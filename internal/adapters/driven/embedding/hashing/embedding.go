// Package hashing provides an offline Embedder using feature hashing.
//
// Each lowercased word and each character trigram of a word is hashed into
// one of Dimensions buckets with a hash-derived sign; the result is
// L2-normalised. The same text always yields the same vector, and texts
// sharing vocabulary are close in L2 distance.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultDimensions matches the all-MiniLM vector size.
const DefaultDimensions = 384

// Embedder is a deterministic in-process embedder.
type Embedder struct {
	dimensions int
}

// New creates a hashing embedder. A non-positive dimension uses the default.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed generates embeddings for texts, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

// EmbedOne generates the embedding for a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		e.add(v, "w:"+w, 1)
		runes := []rune("^" + w + "$")
		for i := 0; i+3 <= len(runes); i++ {
			e.add(v, "t:"+string(runes[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (e *Embedder) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := sum % uint64(e.dimensions)
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns "hashing-<dimensions>".
func (e *Embedder) ModelName() string {
	return "hashing-" + strconv.Itoa(e.dimensions)
}

// Ping always succeeds.
func (e *Embedder) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
