// Package badger provides a SnapshotStore on BadgerDB through badgerhold.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// DirName is the database directory inside the data directory.
const DirName = "badger"

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// documentRecord is the stored form of a document. Metadata is kept as
// JSON so arbitrary extractor values survive gob encoding.
type documentRecord struct {
	Name       string
	Seq        uint64
	URI        string
	Metadata   []byte
	IngestedAt time.Time
	Chunks     []chunkRecord
}

type chunkRecord struct {
	ID        string
	Position  int
	Content   string
	Embedding []float32
}

// rowRecord is one pooled table row. Seq is assigned on insert.
type rowRecord struct {
	Seq      uint64 `badgerhold:"key"`
	Source   string
	Position int
	Text     string
}

// Store persists snapshots in a local Badger database.
type Store struct {
	store *badgerhold.Store
	path  string

	mu      sync.Mutex
	lastSeq uint64
}

// NewStore opens (or creates) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, DirName)
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("creating badger directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	s := &Store{store: store, path: path}

	var docs []documentRecord
	if err := store.Find(&docs, nil); err != nil {
		store.Close()
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	for _, d := range docs {
		s.lastSeq = max(s.lastSeq, d.Seq)
	}

	return s, nil
}

// Path returns the database directory.
func (s *Store) Path() string {
	return s.path
}

// SaveDocument replaces the stored document. A re-saved document keeps its
// original load position.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing documentRecord
	seq := uint64(0)
	switch err := s.store.Get(doc.Name, &existing); {
	case err == nil:
		seq = existing.Seq
	case errors.Is(err, badgerhold.ErrNotFound):
		s.lastSeq++
		seq = s.lastSeq
	default:
		return fmt.Errorf("reading document: %w", err)
	}

	record := documentRecord{
		Name:       doc.Name,
		Seq:        seq,
		URI:        doc.URI,
		Metadata:   metadata,
		IngestedAt: doc.IngestedAt,
		Chunks:     make([]chunkRecord, len(doc.Chunks)),
	}
	for i, c := range doc.Chunks {
		record.Chunks[i] = chunkRecord{
			ID:        c.ID,
			Position:  c.Position,
			Content:   c.Content,
			Embedding: slices.Clone(c.Embedding),
		}
	}

	if err := s.store.Upsert(doc.Name, &record); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// LoadDocuments returns documents in first-save order.
func (s *Store) LoadDocuments(_ context.Context) ([]domain.Document, error) {
	var records []documentRecord
	if err := s.store.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	docs := make([]domain.Document, 0, len(records))
	for _, r := range records {
		doc := domain.Document{
			Name:       r.Name,
			URI:        r.URI,
			IngestedAt: r.IngestedAt,
		}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata for %s: %w", r.Name, err)
			}
		}
		for _, c := range r.Chunks {
			doc.Chunks = append(doc.Chunks, domain.Chunk{
				ID:           c.ID,
				DocumentName: r.Name,
				Content:      c.Content,
				Position:     c.Position,
				Embedding:    c.Embedding,
			})
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument removes a document. Unknown names are not an error.
func (s *Store) DeleteDocument(_ context.Context, name string) error {
	err := s.store.Delete(name, documentRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// AppendTableRows adds rows to the pooled snapshot.
func (s *Store) AppendTableRows(_ context.Context, rows []domain.TableRow) error {
	for _, row := range rows {
		record := &rowRecord{Source: row.Source, Position: row.Position, Text: row.Text}
		if err := s.store.Insert(badgerhold.NextSequence(), record); err != nil {
			return fmt.Errorf("saving table row: %w", err)
		}
	}
	return nil
}

// LoadTableRows returns pooled rows in append order.
func (s *Store) LoadTableRows(_ context.Context) ([]domain.TableRow, error) {
	var records []rowRecord
	if err := s.store.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("loading table rows: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	rows := make([]domain.TableRow, len(records))
	for i, r := range records {
		rows[i] = domain.TableRow{Source: r.Source, Position: r.Position, Text: r.Text}
	}
	return rows, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.store.Close()
}
