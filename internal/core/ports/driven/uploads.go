package driven

import "github.com/custodia-labs/troubleshoot/internal/core/domain"

// UploadStore keeps uploaded source files. Bytes and a file name go in,
// the stored path comes out.
type UploadStore interface {
	Save(kind domain.ExtractionKind, name string, content []byte) (string, error)
}
