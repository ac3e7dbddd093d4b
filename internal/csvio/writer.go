package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteTable writes rows as CSV with the given column order. Rows are field
// maps; columns absent from a row are written as empty cells.
func WriteTable(w io.Writer, columns []string, rows []map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(columns))
	for i, row := range rows {
		for j, col := range columns {
			record[j] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
