package domain

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is.
var (
	// ErrIngestionFailure indicates an unreadable or unparseable source.
	// Existing documents are left untouched.
	ErrIngestionFailure = errors.New("ingestion failed")

	// ErrEmbeddingFailure indicates the embedder was unavailable or returned
	// unusable vectors. Nothing partial is published.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrRetrievalFailure indicates retrieval could not complete.
	// An empty store is not a failure.
	ErrRetrievalFailure = errors.New("retrieval failed")

	// ErrGenerationBackend indicates the generation backend could not be
	// reached or returned a malformed response.
	ErrGenerationBackend = errors.New("generation backend failed")

	// ErrInvalidArgument indicates a caller supplied an out-of-range value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates no normaliser handles a file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension fixed by the first embedding.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates a backend refused a request for exceeding
	// its quota (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)
