package driven

import "context"

// VectorIndex is a nearest-neighbour structure over the embeddings of one
// document. Vectors are addressed by insertion position, which matches the
// position of the chunk they were computed from.
//
// The bundled implementation is exact L2; approximate indexes can be
// supplied through IndexFactory without changing callers.
type VectorIndex interface {
	// Add appends vectors. Positions continue from Len().
	Add(ctx context.Context, vectors [][]float32) error

	// Search returns up to k hits ordered by ascending distance.
	// k larger than Len() returns every vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the vector size, or zero for an empty index.
	Dimension() int
}

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	// Position is the insertion position of the matched vector.
	Position int

	// Distance is the L2 distance to the query.
	Distance float32
}

// IndexFactory builds an empty index for vectors of the given dimension.
type IndexFactory func(dimension int) VectorIndex
