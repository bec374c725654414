package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, dir
}

func testDocument(name string, texts ...string) *domain.Document {
	doc := &domain.Document{
		Name:       name,
		URI:        "/uploads/manuals/" + name,
		Metadata:   map[string]any{"pages": float64(2)},
		IngestedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, text := range texts {
		doc.Chunks = append(doc.Chunks, domain.Chunk{
			ID:           name + "-" + text,
			DocumentName: name,
			Content:      text,
			Position:     i,
			Embedding:    []float32{float32(i), 0.5, -1.25},
		})
	}
	return doc
}

func TestNewStore(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, DatabaseFileName), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_SaveAndLoadDocuments(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("pump.pdf", "prime", "bleed")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("fan.pdf", "spin")))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "pump.pdf", docs[0].Name)
	assert.Equal(t, "/uploads/manuals/pump.pdf", docs[0].URI)
	assert.Equal(t, float64(2), docs[0].Metadata["pages"])
	assert.True(t, docs[0].IngestedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.Len(t, docs[0].Chunks, 2)
	assert.Equal(t, "prime", docs[0].Chunks[0].Content)
	assert.Equal(t, "bleed", docs[0].Chunks[1].Content)
	assert.Equal(t, []float32{1, 0.5, -1.25}, docs[0].Chunks[1].Embedding)
	assert.Equal(t, "fan.pdf", docs[1].Name)
}

func TestStore_SaveDocumentReplacesChunksKeepsOrder(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("a", "one", "two", "three")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("b", "x")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("a", "new")))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Name)
	require.Len(t, docs[0].Chunks, 1)
	assert.Equal(t, "new", docs[0].Chunks[0].Content)
}

func TestStore_EmptyDocument(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{Name: "blank.txt"}))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Chunks)
}

func TestStore_DeleteDocument(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("a", "one")))
	require.NoError(t, store.DeleteDocument(ctx, "a"))
	require.NoError(t, store.DeleteDocument(ctx, "missing"))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	var chunks int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&chunks))
	assert.Zero(t, chunks)
}

func TestStore_TableRows(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	rows, err := store.LoadTableRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, store.AppendTableRows(ctx, []domain.TableRow{
		{Source: "codes.csv", Position: 0, Text: "code: E101 | desc: motor overheat"},
		{Source: "codes.csv", Position: 1, Text: "code: E102 | desc: low pressure"},
	}))
	require.NoError(t, store.AppendTableRows(ctx, nil))
	require.NoError(t, store.AppendTableRows(ctx, []domain.TableRow{
		{Source: "log.xlsx", Position: 2, Text: "unit: 7 | fault: E101"},
	}))

	rows, err = store.LoadTableRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "code: E101 | desc: motor overheat", rows[0].Text)
	assert.Equal(t, "log.xlsx", rows[2].Source)
	assert.Equal(t, 2, rows[2].Position)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, testDocument("manualA", "chunk")))
	require.NoError(t, store.AppendTableRows(ctx, []domain.TableRow{{Source: "t", Text: "a: b"}}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	docs, err := reopened.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "chunk", docs[0].Chunks[0].Content)

	rows, err := reopened.LoadTableRows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFloat32Conversion(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))

	in := []float32{0, 1.5, -3.25, 1e-7}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
}
