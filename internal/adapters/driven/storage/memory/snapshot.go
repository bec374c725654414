package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps snapshots in process memory.
type SnapshotStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	order     []string
	rows      []domain.TableRow
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{documents: make(map[string]domain.Document)}
}

// SaveDocument stores a copy of doc, replacing any previous version.
func (s *SnapshotStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.Name]; !ok {
		s.order = append(s.order, doc.Name)
	}
	s.documents[doc.Name] = copyDocument(*doc)
	return nil
}

// LoadDocuments returns documents in first-save order.
func (s *SnapshotStore) LoadDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.order))
	for _, name := range s.order {
		docs = append(docs, copyDocument(s.documents[name]))
	}
	return docs, nil
}

// DeleteDocument removes a document.
func (s *SnapshotStore) DeleteDocument(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[name]; !ok {
		return nil
	}
	delete(s.documents, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return nil
}

// AppendTableRows adds rows to the pooled snapshot.
func (s *SnapshotStore) AppendTableRows(_ context.Context, rows []domain.TableRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

// LoadTableRows returns pooled rows in append order.
func (s *SnapshotStore) LoadTableRows(_ context.Context) ([]domain.TableRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows), nil
}

// Close is a no-op.
func (s *SnapshotStore) Close() error {
	return nil
}

func copyDocument(doc domain.Document) domain.Document {
	chunks := make([]domain.Chunk, len(doc.Chunks))
	for i, c := range doc.Chunks {
		c.Embedding = slices.Clone(c.Embedding)
		chunks[i] = c
	}
	doc.Chunks = chunks
	return doc
}
