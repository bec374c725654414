// Package table extracts rows from CSV files and Excel workbooks.
//
// The first row is the header. Each later row becomes a domain.Row whose
// fields follow header order. Blank header cells are named "Unnamed: N"
// and repeated names get a ".N" suffix, so every column keeps a distinct
// label when the row is flattened.
package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIME types handled.
const (
	MIMETypeCSV  = "text/csv"
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrEmptyTable is returned when a source has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// Normaliser handles tabular documents.
type Normaliser struct{}

// New creates a new table normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMETypeCSV, MIMETypeXLSX}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".csv", ".xlsx"}
}

// Normalise parses the content as CSV or XLSX depending on the name and
// MIME type.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidArgument
	}

	var (
		records [][]string
		format  string
		sheet   string
		err     error
	)
	if isXLSX(raw) {
		format = "xlsx"
		records, sheet, err = readXLSX(raw.Content)
	} else {
		format = "csv"
		records, err = readCSV(bytes.NewReader(bytes.TrimPrefix(raw.Content, []byte("\xEF\xBB\xBF"))))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	columns := headerNames(records[0])
	rows := make([]domain.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := make(domain.Row, len(columns))
		for i, c := range columns {
			row[i] = domain.Field{Column: c}
			if i < len(record) {
				row[i].Value = record[i]
			}
		}
		rows = append(rows, row)
	}

	metadata := map[string]any{
		"mime_type": raw.MIMEType,
		"format":    format,
		"columns":   len(columns),
		"rows":      len(rows),
	}
	if sheet != "" {
		metadata["sheet"] = sheet
	}

	return &domain.Extraction{
		Kind:     domain.ExtractionTable,
		Rows:     rows,
		Metadata: metadata,
	}, nil
}

func isXLSX(raw *domain.RawDocument) bool {
	return raw.MIMEType == MIMETypeXLSX || strings.HasSuffix(strings.ToLower(raw.Name), ".xlsx")
}

// readCSV reads every record. Quotes are lenient: a stray quote inside a
// field is kept as text rather than rejected.
func readCSV(src io.Reader) ([][]string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// readXLSX returns the rows of the first sheet in the workbook.
func readXLSX(content []byte) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrEmptyTable
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, sheets[0], nil
}

// headerNames names blank header cells and disambiguates duplicates.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
