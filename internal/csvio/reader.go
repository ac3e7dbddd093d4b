// Package csvio reads and writes the contact tables the hygiene engine
// works on. It owns every file-format concern (BOM, broken UTF-8, Excel
// artifacts, ragged rows) so the engine only ever sees clean field maps.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is one parsed CSV input: the cleaned header and one field map per
// data row. Missing trailing cells read as empty strings; cells beyond the
// header are dropped.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// ReadTable parses a CSV stream into a Table. The first non-empty record is
// the header; fully empty rows are skipped.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(Wrap(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	t := &Table{}
	for _, record := range records {
		if emptyRecord(record) {
			continue
		}

		if t.Header == nil {
			t.Header = make([]string, len(record))
			for i, h := range record {
				t.Header[i] = CleanHeader(h)
			}
			continue
		}

		row := make(map[string]string, len(t.Header))
		for i, col := range t.Header {
			if i < len(record) {
				row[col] = CleanCell(record[i])
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	if t.Header == nil {
		return nil, fmt.Errorf("reading csv: no header row found")
	}

	return t, nil
}

// CleanHeader normalizes a header cell: whitespace and stray BOM bytes
// trimmed, Excel formula wrapping (`="..."`) removed.
func CleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return CleanCell(s)
}

// CleanCell trims a data cell and unwraps the `="value"` formula guard Excel
// adds to preserve leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// HasColumns reports whether the table's header carries every wanted column.
// The first missing column name is returned for error reporting.
func (t *Table) HasColumns(want []string) (string, bool) {
	have := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		have[h] = true
	}
	for _, col := range want {
		if !have[col] {
			return col, false
		}
	}
	return "", true
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
