package driven

import (
	"context"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

// Normaliser extracts text or rows from uploaded bytes.
type Normaliser interface {
	// SupportedMIMETypes returns the content types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns file extensions (with dot) it handles.
	SupportedExtensions() []string

	// Normalise extracts the document's content.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Extraction, error)
}
