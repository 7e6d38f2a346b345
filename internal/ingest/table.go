package ingest

import (
	"encoding/csv"
	"io"
	"strings"
)

// Table is a header-indexed view of a CSV export.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// ReadTable parses CSV text. Header cells are trimmed; for duplicate header
// names the first column wins. Rows may be ragged.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	t := &Table{index: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}

	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		t.Header[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	t.Rows = records[1:]
	return t, nil
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Find returns the index of the first candidate present in the header.
func (t *Table) Find(candidates []string) (int, bool) {
	for _, c := range candidates {
		if i, ok := t.index[c]; ok {
			return i, true
		}
	}
	return -1, false
}

// cell returns row[col], or "" for a missing column or short row.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
