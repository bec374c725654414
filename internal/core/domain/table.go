package domain

import "strings"

// Field is one column/value cell of a tabular row.
type Field struct {
	Column string
	Value  string
}

// Row is an ordered sequence of cells. Column order is preserved when the
// row is flattened.
type Row []Field

// RowSeparator joins the cells of a flattened row.
const RowSeparator = " | "

// Flatten renders the row as "col: val | col: val".
func (r Row) Flatten() string {
	var b strings.Builder
	for i, f := range r {
		if i > 0 {
			b.WriteString(RowSeparator)
		}
		b.WriteString(f.Column)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// RowFromMap builds a Row from a column->value mapping using the given
// column order. Columns missing from values render with an empty value.
func RowFromMap(columns []string, values map[string]string) Row {
	row := make(Row, 0, len(columns))
	for _, c := range columns {
		row = append(row, Field{Column: c, Value: values[c]})
	}
	return row
}

// TableRow is one flattened row in the pooled table store.
type TableRow struct {
	// Source is the table the row came from.
	Source string

	// Position is the row's index in the pooled sequence.
	Position int

	// Text is the flattened row.
	Text string
}
