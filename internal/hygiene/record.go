// Package hygiene implements the record reconciliation engine: name and
// email normalization, the email-keyed merge of an authoritative contact
// table with an incoming one, and suppression-status annotation.
//
// The package is UI- and I/O-free. Collaborators hand it already-parsed
// tables (see internal/schema and internal/csvio) and receive one normalized
// table back.
package hygiene

import (
	"fmt"
	"strings"
)

// NoEmail is the sentinel email value for rows that could not be keyed.
const NoEmail = "NO EMAIL"

// Note tags accumulated in a record's Notes field.
const (
	NoteMissingEmail      = "MISSING EMAIL"
	NoteInvalidEmail      = "INVALID EMAIL"
	NoteDuplicate         = "DUPLICATE"
	NoteInvalidEmailParts = "INVALID EMAIL PARTS"
	NoteBounced           = "Bounced"
	NoteUnsubscribed      = "Unsubscribed"
)

// noteSeparator joins accumulated notes.
const noteSeparator = "; "

// ContactRecord is one row of a contact table, with the columns the merge
// logic reasons about promoted to named fields. Every other source column is
// carried through untouched in Extra, keyed by its original column name.
type ContactRecord struct {
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
	Company     string

	// Notes accumulates free-text provenance and status flags, joined by
	// "; ". It is synthesized during the merge and never present in the
	// source tables.
	Notes string

	Extra map[string]string
}

// AppendNote adds a note to the record, joining with "; " when notes are
// already present.
func (r *ContactRecord) AppendNote(note string) {
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
	} else {
		r.Notes += noteSeparator + note
	}
}

// HasNote reports whether the given tag already appears in the record's
// Notes. Matching is by substring, which is what keeps repeated annotation
// passes from stacking the same tag.
func (r *ContactRecord) HasNote(tag string) bool {
	return strings.Contains(r.Notes, tag)
}

// Clone returns a deep copy of the record.
func (r ContactRecord) Clone() ContactRecord {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MissingFieldError reports a configured column that was absent from a row.
// Schema shape is the reader's responsibility, so this aborts the table
// rather than being folded into Notes.
type MissingFieldError struct {
	Field string
	Row   int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %d: missing field %q", e.Row, e.Field)
}
