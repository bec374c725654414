// Package pdf extracts text from PDF manuals.
//
// pdftotext from poppler is used when it is on PATH since it keeps the
// page layout of tables and wiring charts. Otherwise the page content
// streams are pulled out with pdfcpu and the text showing operators are
// decoded directly.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the MIME type handled.
const MIMEType = "application/pdf"

const pdftotextBinary = "pdftotext"

// Extractor names recorded in the extraction metadata.
const (
	ExtractorPdftotext = "pdftotext"
	ExtractorPdfcpu    = "pdfcpu"
)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

func init() {
	// Keep pdfcpu from writing its config tree into the user's home.
	model.ConfigPath = "disable"
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF normaliser that shells out to pdftotext when present.
func New() *Normaliser {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:   runner,
		lookPath: exec.LookPath,
	}
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotextBinary); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return `PDF text extraction works best with pdftotext (poppler).

Install it with:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils

Without it, a built-in extractor is used which may lose layout.`
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Normalise extracts the text of every page that has any, pages joined
// by newlines.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidArgument
	}

	dir, err := os.MkdirTemp("", "troubleshoot-pdf-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(path, raw.Content, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	var (
		pages     []string
		extractor string
	)
	if _, lookErr := n.lookPath(pdftotextBinary); lookErr == nil {
		extractor = ExtractorPdftotext
		pages, err = n.runPdftotext(ctx, path)
	} else {
		extractor = ExtractorPdfcpu
		pages, err = extractWithPdfcpu(path, filepath.Join(dir, "pages"))
	}
	if err != nil {
		return nil, err
	}

	total := len(pages)
	pages = textPages(pages)
	text := strings.Join(pages, "\n")
	metadata := map[string]any{
		"mime_type":  raw.MIMEType,
		"format":     "pdf",
		"pages":      total,
		"text_pages": len(pages),
		"extractor":  extractor,
	}
	if title := extractTitle(text, raw.Name); title != "" {
		metadata["title"] = title
	}

	return &domain.Extraction{
		Kind:     domain.ExtractionText,
		Text:     text,
		Metadata: metadata,
	}, nil
}

func (n *Normaliser) runPdftotext(ctx context.Context, path string) ([]string, error) {
	out, err := n.runner.Run(ctx, pdftotextBinary, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	// pdftotext separates pages with form feeds and ends the last one too.
	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	for i, p := range pages {
		pages[i] = strings.TrimRight(p, "\n")
	}
	return pages, nil
}

var pageFile = regexp.MustCompile(`page_(\d+)`)

func extractWithPdfcpu(path, outDir string) ([]string, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract pdf content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read page dir: %w", err)
	}

	streams := make(map[int][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, _ := strconv.Atoi(m[1])
		content, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", page, err)
		}
		streams[page] = content
	}

	count := pdfCtx.PageCount
	for page := range streams {
		count = max(count, page)
	}

	pages := make([]string, count)
	nums := make([]int, 0, len(streams))
	for page := range streams {
		nums = append(nums, page)
	}
	sort.Ints(nums)
	for _, page := range nums {
		if page >= 1 {
			pages[page-1] = contentText(streams[page])
		}
	}
	return pages, nil
}

// textPages drops pages without any text so blank and image-only pages do
// not add separators.
func textPages(pages []string) []string {
	out := pages[:0]
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractTitle picks the first short non-blank line, falling back to the
// file name.
func extractTitle(content, name string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < 200 && !strings.ContainsRune(line, 0) {
			return line
		}
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "." || base == "" {
		return ""
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}
