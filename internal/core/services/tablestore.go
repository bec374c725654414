package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// TableStore holds flattened rows from every ingested table in one pooled,
// append-only sequence. Rows are not grouped per table for search.
type TableStore struct {
	snapshots driven.SnapshotStore

	// writeMu serialises ingestion so snapshot rows land in memory order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	rows    []domain.TableRow
	lowered []string
}

// NewTableStore creates an empty table store.
// The snapshots parameter is optional (can be nil).
func NewTableStore(snapshots driven.SnapshotStore) *TableStore {
	return &TableStore{snapshots: snapshots}
}

// IngestTable flattens rows to "col: val | col: val" and appends them.
// Rows without cells are skipped. Re-ingesting a table appends again.
func (s *TableStore) IngestTable(ctx context.Context, source string, rows []domain.Row) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	added := make([]domain.TableRow, 0, len(rows))
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		row := domain.TableRow{
			Source:   source,
			Position: len(s.rows),
			Text:     r.Flatten(),
		}
		s.rows = append(s.rows, row)
		s.lowered = append(s.lowered, strings.ToLower(row.Text))
		added = append(added, row)
	}
	s.mu.Unlock()

	logger.Debug("Table %q: %d rows appended", source, len(added))

	if s.snapshots != nil && len(added) > 0 {
		if err := s.snapshots.AppendTableRows(ctx, added); err != nil {
			logger.Warn("Snapshot of table %q not saved: %v", source, err)
		}
	}
	return nil
}

// Search returns the text of every row containing at least one
// whitespace-separated query token, case-insensitively, in storage order.
func (s *TableStore) Search(query string) []string {
	matches := s.Matches(query)
	texts := make([]string, len(matches))
	for i := range matches {
		texts[i] = matches[i].Text
	}
	return texts
}

// Matches is Search returning whole rows.
func (s *TableStore) Matches(query string) []domain.TableRow {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return []domain.TableRow{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []domain.TableRow{}
	for i, text := range s.lowered {
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				matches = append(matches, s.rows[i])
				break
			}
		}
	}
	return matches
}

// Rows returns a copy of the pooled rows.
func (s *TableStore) Rows() []domain.TableRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.TableRow, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// Len returns the number of pooled rows.
func (s *TableStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Restore loads persisted rows. It is meant to run once at start-up,
// before any ingestion.
func (s *TableStore) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}

	rows, err := s.snapshots.LoadTableRows(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		r.Position = len(s.rows)
		s.rows = append(s.rows, r)
		s.lowered = append(s.lowered, strings.ToLower(r.Text))
	}
	logger.Info("Restored %d table rows", len(rows))
	return len(rows), nil
}
