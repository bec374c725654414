package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// Upload subdirectories under the data directory.
const (
	ManualsDir = "manuals"
	TablesDir  = "tables"
)

// UploadStore writes uploaded files to <root>/manuals or <root>/tables.
type UploadStore struct {
	root string
}

// NewUploadStore creates an upload store rooted at dir.
func NewUploadStore(dir string) *UploadStore {
	return &UploadStore{root: dir}
}

// Save writes content and returns the stored path. An existing file with
// the same name is replaced.
func (s *UploadStore) Save(kind domain.ExtractionKind, name string, content []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: upload name %q", domain.ErrInvalidArgument, name)
	}

	sub := ManualsDir
	if kind == domain.ExtractionTable {
		sub = TablesDir
	}
	dir := filepath.Join(s.root, sub)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}
