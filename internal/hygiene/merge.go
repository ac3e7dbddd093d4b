package hygiene

import "fmt"

// Merger folds an incoming contact table into an authoritative one, keyed by
// lower-cased validated email. Construction is single-pass and single-
// threaded: load the authoritative table, fold incoming rows one at a time,
// then Finalize and read Records.
//
// Keyed rows keep first-seen insertion order so that two runs over the same
// inputs produce byte-identical output.
type Merger struct {
	order   []string
	byEmail map[string]*ContactRecord

	// Rows whose email could not be keyed. These cannot be deduplicated,
	// so each authoritative one is kept as its own row.
	noEmail []*ContactRecord

	// Consolidated accumulator for incoming rows without a usable email.
	// Only the first such row survives as a representative; later ones
	// are dropped after tagging.
	pending *ContactRecord

	finalized bool
}

// NewMerger returns an empty Merger.
func NewMerger() *Merger {
	return &Merger{
		byEmail: make(map[string]*ContactRecord),
	}
}

// LoadAuthoritative seeds the merger from the authoritative table.
//
// Rows with a valid email key the merged map. Rows with a non-empty but
// invalid email are retained individually under the NO EMAIL sentinel.
// Rows with no email at all carry nothing worth keeping and are dropped.
//
// Legacy authoritative rows often carry a display name but no structured
// first/last name; those gaps are backfilled from the display name without
// touching rows that already have both.
func (m *Merger) LoadAuthoritative(recs []ContactRecord) {
	for _, rec := range recs {
		if rec.Email == "" {
			continue
		}

		key := lowerEmail(rec.Email)
		if !IsValidEmail(key) {
			r := rec.Clone()
			r.Email = NoEmail
			m.noEmail = append(m.noEmail, &r)
			continue
		}

		r := rec.Clone()
		m.insert(key, &r)
	}

	for _, key := range m.order {
		rec := m.byEmail[key]
		if rec.DisplayName != "" && (rec.FirstName == "" || rec.LastName == "") {
			rec.LastName, rec.FirstName = SplitName(rec.DisplayName)
		}
	}
}

// FoldIncoming merges one incoming row into the table.
//
// A row with multiple valid addresses fans out into one logical record per
// address, each tagged DUPLICATE. A row with some unparseable parts is
// additionally tagged INVALID EMAIL PARTS. Rows with no usable email at all
// collapse into a single consolidated NO EMAIL accumulator.
func (m *Merger) FoldIncoming(rec ContactRecord) {
	if rec.Email == "" {
		m.accumulateNoEmail(rec, NoteMissingEmail)
		return
	}

	valid, hasInvalid := SplitEmails(rec.Email)
	if len(valid) == 0 {
		m.accumulateNoEmail(rec, NoteInvalidEmail)
		return
	}

	for _, addr := range valid {
		key := lowerEmail(addr)

		current := rec.Clone()
		current.Email = key
		if len(valid) > 1 {
			current.AppendNote(NoteDuplicate)
		}
		if hasInvalid {
			current.AppendNote(NoteInvalidEmailParts)
		}

		if existing, ok := m.byEmail[key]; ok {
			m.mergeInto(existing, current)
		} else {
			m.insert(key, m.synthesize(current))
		}
	}
}

// mergeInto reconciles an incoming record with the keyed row it collided
// with. The existing row always gains a provenance note; DUPLICATE and
// INVALID EMAIL PARTS tags carry over unless already present. The display
// name is only adopted when the existing row had none, in which case the
// structured name fields are backfilled too.
func (m *Merger) mergeInto(existing *ContactRecord, current ContactRecord) {
	existing.AppendNote(provenanceNote(current))

	if current.HasNote(NoteDuplicate) && !existing.HasNote(NoteDuplicate) {
		existing.AppendNote(NoteDuplicate)
	}
	if current.HasNote(NoteInvalidEmailParts) && !existing.HasNote(NoteInvalidEmailParts) {
		existing.AppendNote(NoteInvalidEmailParts)
	}

	if existing.DisplayName == "" {
		existing.DisplayName = current.DisplayName
		if existing.FirstName == "" || existing.LastName == "" {
			existing.LastName, existing.FirstName = SplitName(current.DisplayName)
		}
	}
}

// synthesize builds a fresh output row for an address not seen before. Only
// the fields the incoming table carries are populated; every other output
// column stays empty.
func (m *Merger) synthesize(current ContactRecord) *ContactRecord {
	rec := ContactRecord{
		Email:       current.Email,
		DisplayName: current.DisplayName,
		Company:     current.Company,
		Notes:       current.Notes,
	}
	if current.DisplayName != "" {
		rec.LastName, rec.FirstName = SplitName(current.DisplayName)
	}
	return &rec
}

// accumulateNoEmail folds a keyless incoming row into the consolidated
// accumulator. The first such row becomes the representative; repeats only
// confirm what the tag already says and are dropped.
func (m *Merger) accumulateNoEmail(rec ContactRecord, tag string) {
	if m.pending != nil {
		return
	}
	r := rec.Clone()
	r.Email = NoEmail
	r.AppendNote(tag)
	m.pending = &r
}

// Finalize reconciles the consolidated no-email accumulator with the
// authoritative no-email rows. When the authoritative table already produced
// such rows, the accumulator's provenance is merged into the FIRST one
// instead of adding another; otherwise the accumulator becomes a new row.
//
// Finalize is idempotent; only the first call has any effect.
func (m *Merger) Finalize() {
	if m.finalized {
		return
	}
	m.finalized = true

	if m.pending == nil {
		return
	}

	if len(m.noEmail) == 0 {
		m.noEmail = append(m.noEmail, m.pending)
		m.pending = nil
		return
	}

	first := m.noEmail[0]
	first.AppendNote(provenanceNote(*m.pending))
	if first.DisplayName == "" {
		first.DisplayName = m.pending.DisplayName
		if m.pending.DisplayName != "" {
			first.LastName, first.FirstName = SplitName(m.pending.DisplayName)
		}
	}
	m.pending = nil
}

// Records returns the merged table: keyed rows in first-seen order, followed
// by no-email rows in the order they were produced. Call Finalize first.
func (m *Merger) Records() []ContactRecord {
	out := make([]ContactRecord, 0, len(m.order)+len(m.noEmail))
	for _, key := range m.order {
		out = append(out, *m.byEmail[key])
	}
	for _, rec := range m.noEmail {
		out = append(out, *rec)
	}
	return out
}

// Lookup returns the keyed record for an email, if present.
func (m *Merger) Lookup(email string) (*ContactRecord, bool) {
	rec, ok := m.byEmail[lowerEmail(email)]
	return rec, ok
}

// Len returns the number of keyed rows plus retained no-email rows.
func (m *Merger) Len() int {
	return len(m.order) + len(m.noEmail)
}

func (m *Merger) insert(key string, rec *ContactRecord) {
	if _, exists := m.byEmail[key]; !exists {
		m.order = append(m.order, key)
	}
	m.byEmail[key] = rec
}

// provenanceNote records where a colliding incoming row came from.
func provenanceNote(rec ContactRecord) string {
	return fmt.Sprintf("Customer Name: '%s' and Company Name: '%s'", rec.DisplayName, rec.Company)
}
