package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// documentEntry is an immutable published version of a document.
// Chunk i of doc corresponds to vector position i of index.
type documentEntry struct {
	doc   domain.Document
	index driven.VectorIndex
}

// DocumentStore maps document names to their chunks and vector index.
//
// Ingestion builds a complete entry off to the side and publishes it with
// a single map write, so searches always see either the old or the new
// version of a document. Ingestions of the same name are serialised.
type DocumentStore struct {
	chunker   driven.Chunker
	embedder  driven.Embedder
	newIndex  driven.IndexFactory
	snapshots driven.SnapshotStore

	mu        sync.RWMutex
	entries   map[string]*documentEntry
	order     []string
	dimension int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewDocumentStore creates an empty document store.
// The snapshots parameter is optional (can be nil).
func NewDocumentStore(
	chunker driven.Chunker,
	embedder driven.Embedder,
	newIndex driven.IndexFactory,
	snapshots driven.SnapshotStore,
) *DocumentStore {
	return &DocumentStore{
		chunker:   chunker,
		embedder:  embedder,
		newIndex:  newIndex,
		snapshots: snapshots,
		entries:   make(map[string]*documentEntry),
		locks:     make(map[string]*sync.Mutex),
	}
}

// IngestOption adds source details to an ingested document.
type IngestOption func(*domain.Document)

// WithURI records where the document was read from.
func WithURI(uri string) IngestOption {
	return func(d *domain.Document) {
		d.URI = uri
	}
}

// WithMetadata attaches extraction metadata.
func WithMetadata(metadata map[string]any) IngestOption {
	return func(d *domain.Document) {
		d.Metadata = metadata
	}
}

// IngestDocument chunks and embeds text and publishes it under name,
// replacing any previous document of that name. Embedding failures leave
// the previous version in place. Snapshot failures are logged only.
func (s *DocumentStore) IngestDocument(ctx context.Context, name, text string, opts ...IngestOption) error {
	if name == "" {
		return fmt.Errorf("%w: document name is empty", domain.ErrInvalidArgument)
	}

	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Ingest Document")
	logger.Debug("Document: %q (%d characters)", name, len(text))

	doc := domain.Document{
		Name:       name,
		Chunks:     s.chunker.Chunks(name, text),
		IngestedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&doc)
	}
	logger.Debug("Chunks: %d", len(doc.Chunks))

	entry, err := s.build(ctx, doc)
	if err != nil {
		return err
	}

	if err := s.publish(entry); err != nil {
		return err
	}
	logger.Info("Published %q with %d chunks", name, len(doc.Chunks))

	if s.snapshots != nil {
		if err := s.snapshots.SaveDocument(ctx, &entry.doc); err != nil {
			logger.Warn("Snapshot of %q not saved: %v", name, err)
		}
	}
	return nil
}

// build embeds the document's chunks and constructs its index.
func (s *DocumentStore) build(ctx context.Context, doc domain.Document) (*documentEntry, error) {
	if len(doc.Chunks) == 0 {
		return &documentEntry{doc: doc, index: s.newIndex(s.currentDimension())}, nil
	}

	texts := make([]string, len(doc.Chunks))
	for i := range doc.Chunks {
		texts[i] = doc.Chunks[i].Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed %q: %w", domain.ErrEmbeddingFailure, doc.Name, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
			domain.ErrEmbeddingFailure, len(vectors), len(texts))
	}

	return s.assemble(ctx, doc, vectors)
}

// assemble attaches vectors to chunks and builds the index.
func (s *DocumentStore) assemble(ctx context.Context, doc domain.Document, vectors [][]float32) (*documentEntry, error) {
	dim := len(vectors[0])
	if current := s.currentDimension(); current != 0 && current != dim {
		return nil, fmt.Errorf("%w: %w: got %d, store uses %d",
			domain.ErrEmbeddingFailure, domain.ErrDimensionMismatch, dim, current)
	}

	index := s.newIndex(dim)
	if err := index.Add(ctx, vectors); err != nil {
		return nil, fmt.Errorf("%w: index %q: %w", domain.ErrEmbeddingFailure, doc.Name, err)
	}

	chunks := make([]domain.Chunk, len(doc.Chunks))
	copy(chunks, doc.Chunks)
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	doc.Chunks = chunks

	return &documentEntry{doc: doc, index: index}, nil
}

// publish swaps the entry in atomically. The dimension is re-checked
// under the write lock since another document may have fixed it meanwhile.
func (s *DocumentStore) publish(entry *documentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dim := entry.index.Dimension(); entry.index.Len() > 0 && s.dimension != 0 && dim != s.dimension {
		return fmt.Errorf("%w: %w: got %d, store uses %d",
			domain.ErrEmbeddingFailure, domain.ErrDimensionMismatch, dim, s.dimension)
	}
	if _, exists := s.entries[entry.doc.Name]; !exists {
		s.order = append(s.order, entry.doc.Name)
	}
	s.entries[entry.doc.Name] = entry
	if s.dimension == 0 && entry.index.Len() > 0 {
		s.dimension = entry.index.Dimension()
	}
	return nil
}

// Search returns up to k chunks of the named document nearest to vec,
// closest first. An unknown name yields an empty result and no error.
func (s *DocumentStore) Search(ctx context.Context, name string, vec []float32, k int) ([]domain.ChunkMatch, error) {
	entry := s.entry(name)
	if entry == nil || entry.index.Len() == 0 {
		return []domain.ChunkMatch{}, nil
	}

	hits, err := entry.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}

	matches := make([]domain.ChunkMatch, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(entry.doc.Chunks) {
			continue
		}
		matches = append(matches, domain.ChunkMatch{
			Chunk:    entry.doc.Chunks[h.Position],
			Distance: h.Distance,
		})
	}
	return matches, nil
}

// ListDocuments returns document names in first-ingested order.
func (s *DocumentStore) ListDocuments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Document returns the published version of a document.
func (s *DocumentStore) Document(name string) (*domain.Document, bool) {
	entry := s.entry(name)
	if entry == nil {
		return nil, false
	}
	doc := entry.doc
	return &doc, true
}

// Remove drops a document and its snapshot.
func (s *DocumentStore) Remove(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if _, ok := s.entries[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}
	delete(s.entries, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.DeleteDocument(ctx, name); err != nil {
			logger.Warn("Snapshot of %q not deleted: %v", name, err)
		}
	}
	return nil
}

// Len returns the number of documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimension returns the embedding dimension fixed by the first document.
func (s *DocumentStore) Dimension() int {
	return s.currentDimension()
}

// Restore loads persisted documents and rebuilds their indexes without
// calling the embedder. Documents that cannot be rebuilt are skipped.
func (s *DocumentStore) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}

	docs, err := s.snapshots.LoadDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshots: %w", err)
	}

	restored := 0
	for _, doc := range docs {
		entry, err := s.restoreEntry(ctx, doc)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return restored, err
			}
			logger.Warn("Skipping snapshot %q: %v", doc.Name, err)
			continue
		}
		if err := s.publish(entry); err != nil {
			logger.Warn("Skipping snapshot %q: %v", doc.Name, err)
			continue
		}
		restored++
	}
	logger.Info("Restored %d of %d documents", restored, len(docs))
	return restored, nil
}

func (s *DocumentStore) restoreEntry(ctx context.Context, doc domain.Document) (*documentEntry, error) {
	if len(doc.Chunks) == 0 {
		return &documentEntry{doc: doc, index: s.newIndex(s.currentDimension())}, nil
	}

	vectors := make([][]float32, len(doc.Chunks))
	for i := range doc.Chunks {
		if len(doc.Chunks[i].Embedding) == 0 {
			return nil, fmt.Errorf("chunk %d has no embedding", i)
		}
		vectors[i] = doc.Chunks[i].Embedding
	}
	return s.assemble(ctx, doc, vectors)
}

func (s *DocumentStore) entry(name string) *documentEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[name]
}

func (s *DocumentStore) currentDimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// lockFor returns the ingestion lock of a document name.
func (s *DocumentStore) lockFor(name string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}
