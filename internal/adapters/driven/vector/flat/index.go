package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors contiguously and searches them by brute force.
type Index struct {
	mu        sync.RWMutex
	dimension int
	data      []float32
	count     int
}

// New creates an empty index. A zero dimension is fixed by the first Add.
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Factory is a driven.IndexFactory producing flat indexes.
func Factory(dimension int) driven.VectorIndex {
	return New(dimension)
}

// Add appends vectors in order.
func (x *Index) Add(_ context.Context, vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty: %w", i, domain.ErrInvalidArgument)
		}
		if x.dimension == 0 {
			x.dimension = len(v)
		}
		if len(v) != x.dimension {
			return fmt.Errorf("vector %d has %d dimensions, index has %d: %w",
				i, len(v), x.dimension, domain.ErrDimensionMismatch)
		}
	}

	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	x.count += len(vectors)
	return nil
}

// Search returns the k nearest vectors by L2 distance, closest first.
// Ties keep insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.count == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(query), x.dimension, domain.ErrDimensionMismatch)
	}

	hits := make([]driven.VectorHit, x.count)
	for i := 0; i < x.count; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := x.data[i*x.dimension : (i+1)*x.dimension]
		hits[i] = driven.VectorHit{Position: i, Distance: l2(query, row)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Dimension returns the vector size.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimension
}

// l2 returns the Euclidean distance between a and b.
func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}
