package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// testDatabaseEnv names a disposable database with the vector extension
// available. The tests truncate the snapshot tables.
const testDatabaseEnv = "TROUBLESHOOT_TEST_DATABASE_URL"

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	ctx := context.Background()
	s, err := NewStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.pool.Exec(ctx,
		`TRUNCATE troubleshoot_chunks, troubleshoot_documents, troubleshoot_table_rows RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func TestNewStore_BadURL(t *testing.T) {
	_, err := NewStore(context.Background(), "not a url ::")
	assert.Error(t, err)
}

func TestStore_Documents(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveDocument(ctx, &domain.Document{
		Name:       "pump.pdf",
		Metadata:   map[string]any{"pages": float64(3)},
		IngestedAt: at,
		Chunks: []domain.Chunk{
			{ID: "c1", Content: "prime the pump", Position: 0, Embedding: []float32{1, 0, 0}},
			{ID: "c2", Content: "bleed air", Position: 1, Embedding: []float32{0, 1, 0}},
		},
	}))
	require.NoError(t, s.SaveDocument(ctx, &domain.Document{Name: "empty.txt", IngestedAt: at}))

	docs, err := s.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "pump.pdf", docs[0].Name)
	assert.Equal(t, float64(3), docs[0].Metadata["pages"])
	assert.True(t, docs[0].IngestedAt.Equal(at))
	require.Len(t, docs[0].Chunks, 2)
	assert.Equal(t, []float32{0, 1, 0}, docs[0].Chunks[1].Embedding)
	assert.Empty(t, docs[1].Chunks)

	require.NoError(t, s.DeleteDocument(ctx, "pump.pdf"))
	docs, err = s.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "empty.txt", docs[0].Name)
}

func TestStore_TableRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTableRows(ctx, []domain.TableRow{
		{Source: "codes.csv", Position: 0, Text: "code: E101"},
		{Source: "codes.csv", Position: 1, Text: "code: E102"},
	}))

	rows, err := s.LoadTableRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "code: E101", rows[0].Text)
}
