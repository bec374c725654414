package domain

// RawDocument is an uploaded file before extraction.
type RawDocument struct {
	// Name is the file name the document will be stored under.
	Name string

	// URI is the original location (file path, upload path).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ExtractionKind tells the ingest service which store receives a result.
type ExtractionKind int

const (
	// ExtractionText is free text bound for the document store.
	ExtractionText ExtractionKind = iota

	// ExtractionTable is a row sequence bound for the table store.
	ExtractionTable
)

// String returns the string representation.
func (k ExtractionKind) String() string {
	switch k {
	case ExtractionText:
		return "text"
	case ExtractionTable:
		return "table"
	default:
		return "unknown"
	}
}

// Extraction is the output of a normaliser.
type Extraction struct {
	Kind ExtractionKind

	// Text is set for ExtractionText.
	Text string

	// Rows is set for ExtractionTable.
	Rows []Row

	// Metadata carries extractor details (format, page count).
	Metadata map[string]any
}
