// Package schema describes the column layout of each contact source.
//
// Sources vary by generation: the marketing-platform export spells its email
// column EMAIL, the legacy master list uses email_address, and rows recovered
// from scanned shop reports use "e-mail address". A Source maps logical roles
// (email, display name, company, ...) to the concrete column names so the
// merge engine never hard-codes a spelling.
package schema

import (
	"slices"

	"github.com/star2win/listprep/internal/hygiene"
)

// NotesColumn is the synthetic output column accumulating provenance and
// status flags. It is never present in a source table.
const NotesColumn = "Notes"

// Source maps logical roles to the column names of one input variant.
// A role left empty means the source has no such column.
type Source struct {
	Key   string // unique identifier: "sendgrid"
	Label string // display name: "SendGrid contact export"

	Email       string
	DisplayName string
	FirstName   string
	LastName    string
	Company     string

	// Columns is the full column list in source order, used to build the
	// output header and to carry passthrough fields.
	Columns []string
}

// managed reports whether col is one of the columns promoted to a named
// ContactRecord field for this source.
func (s Source) managed(col string) bool {
	switch col {
	case "", NotesColumn:
		return true
	case s.Email, s.DisplayName, s.FirstName, s.LastName, s.Company:
		return true
	}
	return false
}

// Record converts one raw row into a ContactRecord.
//
// The email column is allowed to be absent (the merger treats that the same
// as an empty email), but a configured display-name or company column
// missing from the row is a schema error: the reader is expected to validate
// shape, so this surfaces a MissingFieldError naming the column and row
// instead of silently producing half-empty records.
func (s Source) Record(row map[string]string, rowIndex int) (hygiene.ContactRecord, error) {
	rec := hygiene.ContactRecord{}

	if s.Email != "" {
		rec.Email = row[s.Email]
	}
	if s.DisplayName != "" {
		v, ok := row[s.DisplayName]
		if !ok {
			return rec, &hygiene.MissingFieldError{Field: s.DisplayName, Row: rowIndex}
		}
		rec.DisplayName = v
	}
	if s.Company != "" {
		v, ok := row[s.Company]
		if !ok {
			return rec, &hygiene.MissingFieldError{Field: s.Company, Row: rowIndex}
		}
		rec.Company = v
	}
	if s.FirstName != "" {
		rec.FirstName = row[s.FirstName]
	}
	if s.LastName != "" {
		rec.LastName = row[s.LastName]
	}
	rec.Notes = row[NotesColumn]

	for col, v := range row {
		if s.managed(col) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[col] = v
	}

	return rec, nil
}

// Row converts a ContactRecord back into a raw row keyed by this source's
// column names, including the synthetic Notes column.
func (s Source) Row(rec hygiene.ContactRecord) map[string]string {
	row := make(map[string]string, len(s.Columns)+1)
	for _, col := range s.Columns {
		row[col] = ""
	}

	if s.Email != "" {
		row[s.Email] = rec.Email
	}
	if s.DisplayName != "" {
		row[s.DisplayName] = rec.DisplayName
	}
	if s.FirstName != "" {
		row[s.FirstName] = rec.FirstName
	}
	if s.LastName != "" {
		row[s.LastName] = rec.LastName
	}
	if s.Company != "" {
		row[s.Company] = rec.Company
	}
	row[NotesColumn] = rec.Notes

	for col, v := range rec.Extra {
		row[col] = v
	}

	return row
}

// OutputColumns returns the output header for a merged table based on this
// source: the source columns plus the synthetic Notes column.
func (s Source) OutputColumns() []string {
	if slices.Contains(s.Columns, NotesColumn) {
		return slices.Clone(s.Columns)
	}
	out := make([]string, 0, len(s.Columns)+1)
	out = append(out, s.Columns...)
	out = append(out, NotesColumn)
	return out
}
