// Package postgres provides a SnapshotStore on PostgreSQL with pgvector,
// for deployments that share one snapshot between several hosts.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS troubleshoot_documents (
    seq         BIGSERIAL,
    name        TEXT PRIMARY KEY,
    uri         TEXT NOT NULL DEFAULT '',
    metadata    JSONB NOT NULL DEFAULT '{}',
    ingested_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS troubleshoot_chunks (
    id            TEXT PRIMARY KEY,
    document_name TEXT NOT NULL REFERENCES troubleshoot_documents(name) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    content       TEXT NOT NULL,
    embedding     vector
);

CREATE INDEX IF NOT EXISTS troubleshoot_chunks_document_idx
    ON troubleshoot_chunks (document_name, position);

CREATE TABLE IF NOT EXISTS troubleshoot_table_rows (
    seq      BIGSERIAL PRIMARY KEY,
    source   TEXT NOT NULL,
    position INTEGER NOT NULL,
    text     TEXT NOT NULL
);
`

// Store persists snapshots in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects, verifies the connection and creates the schema.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// SaveDocument replaces the stored document and its chunks in one
// transaction. A re-saved document keeps its load position.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO troubleshoot_documents (name, uri, metadata, ingested_at)
		 VALUES ($1, $2, $3::jsonb, $4)
		 ON CONFLICT (name) DO UPDATE SET
		     uri = EXCLUDED.uri,
		     metadata = EXCLUDED.metadata,
		     ingested_at = EXCLUDED.ingested_at`,
		doc.Name, doc.URI, string(metadata), doc.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM troubleshoot_chunks WHERE document_name = $1`, doc.Name); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, chunk := range doc.Chunks {
		var embedding *pgvector.Vector
		if len(chunk.Embedding) > 0 {
			v := pgvector.NewVector(chunk.Embedding)
			embedding = &v
		}
		batch.Queue(
			`INSERT INTO troubleshoot_chunks (id, document_name, position, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			chunk.ID, doc.Name, chunk.Position, chunk.Content, embedding,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range doc.Chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadDocuments returns documents in first-save order.
func (s *Store) LoadDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, uri, metadata, ingested_at FROM troubleshoot_documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	index := make(map[string]int)
	for rows.Next() {
		var doc domain.Document
		var metadata []byte
		if err := rows.Scan(&doc.Name, &doc.URI, &metadata, &doc.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		index[doc.Name] = len(docs)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	chunkRows, err := s.pool.Query(ctx,
		`SELECT id, document_name, position, content, embedding
		 FROM troubleshoot_chunks ORDER BY document_name, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var chunk domain.Chunk
		var embedding *pgvector.Vector
		if err := chunkRows.Scan(&chunk.ID, &chunk.DocumentName, &chunk.Position, &chunk.Content, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if embedding != nil {
			chunk.Embedding = embedding.Slice()
		}
		if i, ok := index[chunk.DocumentName]; ok {
			docs[i].Chunks = append(docs[i].Chunks, chunk)
		}
	}
	if err := chunkRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM troubleshoot_documents WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// AppendTableRows adds rows to the pooled snapshot.
func (s *Store) AppendTableRows(ctx context.Context, rows []domain.TableRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO troubleshoot_table_rows (source, position, text) VALUES ($1, $2, $3)`,
			row.Source, row.Position, row.Text,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return nil
}

// LoadTableRows returns pooled rows in append order.
func (s *Store) LoadTableRows(ctx context.Context) ([]domain.TableRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, position, text FROM troubleshoot_table_rows ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query table rows: %w", err)
	}
	defer rows.Close()

	var out []domain.TableRow
	for rows.Next() {
		var row domain.TableRow
		if err := rows.Scan(&row.Source, &row.Position, &row.Text); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
