package driven

import (
	"context"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// SnapshotStore persists ingested state so a restart does not need to
// re-embed every document. Writes are best-effort from the core's view:
// a failed save is logged and never fails ingestion.
type SnapshotStore interface {
	// SaveDocument replaces the stored chunks and embeddings for doc.Name.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// LoadDocuments returns every stored document with chunk embeddings set.
	LoadDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document. Unknown names are not an error.
	DeleteDocument(ctx context.Context, name string) error

	// AppendTableRows adds rows to the pooled table snapshot.
	AppendTableRows(ctx context.Context, rows []domain.TableRow) error

	// LoadTableRows returns pooled rows in storage order.
	LoadTableRows(ctx context.Context) ([]domain.TableRow, error)

	// Close releases resources.
	Close() error
}
