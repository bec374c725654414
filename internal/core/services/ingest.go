package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService routes files to the document or table store.
type IngestService struct {
	docs    *DocumentStore
	tables  *TableStore
	uploads driven.UploadStore

	byExt  map[string]driven.Normaliser
	byMIME map[string]driven.Normaliser
}

// NewIngestService creates an ingest service over the given normalisers.
// Later normalisers win when two claim the same extension.
// The uploads parameter is optional (can be nil).
func NewIngestService(
	docs *DocumentStore,
	tables *TableStore,
	uploads driven.UploadStore,
	normalisers ...driven.Normaliser,
) *IngestService {
	s := &IngestService{
		docs:    docs,
		tables:  tables,
		uploads: uploads,
		byExt:   make(map[string]driven.Normaliser),
		byMIME:  make(map[string]driven.Normaliser),
	}
	for _, n := range normalisers {
		for _, ext := range n.SupportedExtensions() {
			s.byExt[strings.ToLower(ext)] = n
		}
		for _, mt := range n.SupportedMIMETypes() {
			s.byMIME[mt] = n
		}
	}
	return s
}

// Supports reports whether a file name has a registered normaliser.
func (s *IngestService) Supports(name string) bool {
	_, ok := s.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IngestFile reads a file and ingests it under its base name.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*driving.IngestReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrIngestionFailure, path, err)
	}

	raw := &domain.RawDocument{
		Name:     filepath.Base(path),
		URI:      path,
		MIMEType: mimeType(path),
		Content:  content,
	}
	extraction, err := s.extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, raw, extraction)
}

// IngestUpload stores uploaded bytes, then ingests them.
func (s *IngestService) IngestUpload(ctx context.Context, name string, content []byte) (*driving.IngestReport, error) {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return nil, fmt.Errorf("%w: upload has no file name", domain.ErrInvalidArgument)
	}

	raw := &domain.RawDocument{
		Name:     name,
		URI:      name,
		MIMEType: mimeType(name),
		Content:  content,
	}
	extraction, err := s.extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	if s.uploads != nil {
		path, err := s.uploads.Save(extraction.Kind, name, content)
		if err != nil {
			return nil, fmt.Errorf("%w: store upload %s: %w", domain.ErrIngestionFailure, name, err)
		}
		raw.URI = path
	}
	return s.publish(ctx, raw, extraction)
}

// IngestText publishes already-extracted text as a document.
func (s *IngestService) IngestText(ctx context.Context, name, text string) (*driving.IngestReport, error) {
	raw := &domain.RawDocument{Name: name}
	return s.publish(ctx, raw, &domain.Extraction{Kind: domain.ExtractionText, Text: text})
}

// IngestRows appends rows to the table store.
func (s *IngestService) IngestRows(ctx context.Context, source string, rows []domain.Row) (*driving.IngestReport, error) {
	raw := &domain.RawDocument{Name: source}
	return s.publish(ctx, raw, &domain.Extraction{Kind: domain.ExtractionTable, Rows: rows})
}

// Documents lists ingested documents in first-ingested order.
func (s *IngestService) Documents(_ context.Context) []driving.DocumentSummary {
	names := s.docs.ListDocuments()
	out := make([]driving.DocumentSummary, 0, len(names))
	for _, name := range names {
		doc, ok := s.docs.Document(name)
		if !ok {
			continue
		}
		out = append(out, driving.DocumentSummary{
			Name:       doc.Name,
			URI:        doc.URI,
			Chunks:     doc.ChunkCount(),
			IngestedAt: doc.IngestedAt,
		})
	}
	return out
}

// RemoveDocument drops a document and its snapshot.
func (s *IngestService) RemoveDocument(ctx context.Context, name string) error {
	return s.docs.Remove(ctx, name)
}

// TableRowCount returns the number of pooled table rows.
func (s *IngestService) TableRowCount() int {
	return s.tables.Len()
}

// extract picks a normaliser by extension, then MIME type.
func (s *IngestService) extract(ctx context.Context, raw *domain.RawDocument) (*domain.Extraction, error) {
	n, ok := s.byExt[strings.ToLower(filepath.Ext(raw.Name))]
	if !ok {
		n, ok = s.byMIME[raw.MIMEType]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrIngestionFailure, domain.ErrUnsupportedType, raw.Name)
	}

	logger.Debug("Extracting %s (%s, %d bytes)", raw.Name, raw.MIMEType, len(raw.Content))
	extraction, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: extract %s: %w", domain.ErrIngestionFailure, raw.Name, err)
	}
	return extraction, nil
}

func (s *IngestService) publish(
	ctx context.Context,
	raw *domain.RawDocument,
	extraction *domain.Extraction,
) (*driving.IngestReport, error) {
	report := &driving.IngestReport{Name: raw.Name, Kind: extraction.Kind, Path: raw.URI}

	switch extraction.Kind {
	case domain.ExtractionText:
		err := s.docs.IngestDocument(ctx, raw.Name, extraction.Text,
			WithURI(raw.URI), WithMetadata(extraction.Metadata))
		if err != nil {
			return nil, err
		}
		if doc, ok := s.docs.Document(raw.Name); ok {
			report.Chunks = doc.ChunkCount()
		}

	case domain.ExtractionTable:
		if err := s.tables.IngestTable(ctx, raw.Name, extraction.Rows); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIngestionFailure, err)
		}
		for _, r := range extraction.Rows {
			if len(r) > 0 {
				report.Rows++
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown extraction kind %d", domain.ErrIngestionFailure, extraction.Kind)
	}
	return report, nil
}

// mimeType guesses a content type from the file extension.
func mimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
		return mt
	}
	return "application/octet-stream"
}
