package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// IngestService loads manuals and logs into the retrieval stores.
type IngestService interface {
	// IngestFile reads a file from disk and routes it by extension.
	IngestFile(ctx context.Context, path string) (*IngestReport, error)

	// IngestUpload stores uploaded bytes and ingests them.
	IngestUpload(ctx context.Context, name string, content []byte) (*IngestReport, error)

	// IngestText chunks, embeds and publishes already-extracted text.
	IngestText(ctx context.Context, name, text string) (*IngestReport, error)

	// IngestRows appends table rows to the pooled table store.
	IngestRows(ctx context.Context, source string, rows []domain.Row) (*IngestReport, error)

	// Documents lists ingested documents.
	Documents(ctx context.Context) []DocumentSummary

	// RemoveDocument drops a document and its snapshot.
	RemoveDocument(ctx context.Context, name string) error

	// TableRowCount returns the number of pooled table rows.
	TableRowCount() int
}

// IngestReport describes the outcome of one ingestion.
type IngestReport struct {
	Name   string                `json:"name"`
	Kind   domain.ExtractionKind `json:"-"`
	Path   string                `json:"path,omitempty"`
	Chunks int                   `json:"chunks"`
	Rows   int                   `json:"rows"`
}

// DocumentSummary is a listing entry for an ingested document.
type DocumentSummary struct {
	Name       string    `json:"name"`
	URI        string    `json:"uri,omitempty"`
	Chunks     int       `json:"chunks"`
	IngestedAt time.Time `json:"ingested_at"`
}
