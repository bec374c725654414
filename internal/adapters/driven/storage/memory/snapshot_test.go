package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

func testDocument(name string, contents ...string) *domain.Document {
	doc := &domain.Document{Name: name}
	for i, c := range contents {
		doc.Chunks = append(doc.Chunks, domain.Chunk{
			ID:           name + "-" + c,
			DocumentName: name,
			Content:      c,
			Position:     i,
			Embedding:    []float32{float32(i), 1},
		})
	}
	return doc
}

func TestSnapshotStore_SaveAndLoadOrder(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	require.NoError(t, store.SaveDocument(ctx, testDocument("manualB", "x")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("manualA", "y", "z")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("manualB", "w")))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "manualB", docs[0].Name)
	assert.Equal(t, "w", docs[0].Chunks[0].Content)
	assert.Equal(t, "manualA", docs[1].Name)
	assert.Len(t, docs[1].Chunks, 2)
}

func TestSnapshotStore_CopiesEmbeddings(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	doc := testDocument("m", "a")
	require.NoError(t, store.SaveDocument(ctx, doc))
	doc.Chunks[0].Embedding[0] = 99

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, docs[0].Chunks[0].Embedding)
}

func TestSnapshotStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	require.NoError(t, store.SaveDocument(ctx, testDocument("a", "x")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("b", "y")))
	require.NoError(t, store.DeleteDocument(ctx, "a"))
	require.NoError(t, store.DeleteDocument(ctx, "unknown"))

	docs, err := store.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].Name)
}

func TestSnapshotStore_TableRows(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	require.NoError(t, store.AppendTableRows(ctx, []domain.TableRow{
		{Source: "faults.csv", Position: 0, Text: "Code: E01 | Action: Reset"},
	}))
	require.NoError(t, store.AppendTableRows(ctx, []domain.TableRow{
		{Source: "alarms.csv", Position: 1, Text: "Code: A7 | Action: Check fan"},
	}))

	rows, err := store.LoadTableRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "faults.csv", rows[0].Source)
	assert.Equal(t, "alarms.csv", rows[1].Source)

	assert.NoError(t, store.Close())
}
