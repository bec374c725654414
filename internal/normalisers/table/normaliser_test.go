package table

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

func normalise(t *testing.T, name, mimeType string, content []byte) *domain.Extraction {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		Name:     name,
		MIMEType: mimeType,
		Content:  content,
	})
	require.NoError(t, err)
	require.Equal(t, domain.ExtractionTable, result.Kind)
	return result
}

func TestNormaliser_Supported(t *testing.T) {
	n := New()
	assert.ElementsMatch(t, []string{MIMETypeCSV, MIMETypeXLSX}, n.SupportedMIMETypes())
	assert.ElementsMatch(t, []string{".csv", ".xlsx"}, n.SupportedExtensions())
}

func TestNormalise_CSV(t *testing.T) {
	content := []byte("code,desc\nE101,motor overheat\nE102,\"low, pressure\"\n")

	result := normalise(t, "codes.csv", MIMETypeCSV, content)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "code: E101 | desc: motor overheat", result.Rows[0].Flatten())
	assert.Equal(t, "code: E102 | desc: low, pressure", result.Rows[1].Flatten())
	assert.Equal(t, "csv", result.Metadata["format"])
	assert.Equal(t, 2, result.Metadata["rows"])
}

func TestNormalise_CSVRaggedRows(t *testing.T) {
	content := []byte("\xEF\xBB\xBFa,b,c\n1\n\n,,\n1,2,3,4\n")

	result := normalise(t, "ragged.csv", "", content)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "a: 1 | b:  | c: ", result.Rows[0].Flatten())
	assert.Equal(t, "a: 1 | b: 2 | c: 3", result.Rows[1].Flatten())
}

func TestNormalise_HeaderNames(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "Unnamed: 1", "id.1", "id.2", "x"},
		headerNames([]string{"id", " ", "id", "id", " x "}))
}

func TestNormalise_HeaderOnly(t *testing.T) {
	result := normalise(t, "empty.csv", MIMETypeCSV, []byte("code,desc\n"))
	assert.Empty(t, result.Rows)
}

func TestNormalise_EmptyCSV(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "none.csv"})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestNormalise_StrayQuotes(t *testing.T) {
	result := normalise(t, "quotes.csv", MIMETypeCSV, []byte("fault,count\nsays \"E1\",1\n"))

	require.Len(t, result.Rows, 1)
	assert.Equal(t, `says "E1"`, result.Rows[0][0].Value)
	assert.Equal(t, "1", result.Rows[0][1].Value)
}

func TestReadCSV_ReadError(t *testing.T) {
	errDisk := errors.New("read failed")
	src := io.MultiReader(strings.NewReader("a,b\n1,2\n"), iotest.ErrReader(errDisk))

	_, err := readCSV(src)

	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "parse csv")
}

func TestNormalise_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"unit", "fault", "hours"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"P-7", "E101", 1200}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"P-9", "E205"}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]any{"ignored"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result := normalise(t, "log.XLSX", "", buf.Bytes())

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "unit: P-7 | fault: E101 | hours: 1200", result.Rows[0].Flatten())
	assert.Equal(t, "unit: P-9 | fault: E205 | hours: ", result.Rows[1].Flatten())
	assert.Equal(t, "xlsx", result.Metadata["format"])
	assert.Equal(t, "Sheet1", result.Metadata["sheet"])
}

func TestNormalise_BadXLSX(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		Name:     "broken.xlsx",
		MIMEType: MIMETypeXLSX,
		Content:  []byte("not a zip"),
	})
	assert.Error(t, err)
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
