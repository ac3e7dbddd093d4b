package hygiene

import "strings"

// EmailColumn locates the column of interest in an auxiliary lookup table:
// the first header containing "email", case-insensitive.
func EmailColumn(header []string) (string, bool) {
	for _, col := range header {
		if strings.Contains(strings.ToLower(col), "email") {
			return col, true
		}
	}
	return "", false
}

// SuppressionSet builds the set of lower-cased, validated addresses from an
// auxiliary table (bounced, unsubscribed, excluded-category exports). The
// second return value is false when no email column could be located.
func SuppressionSet(header []string, rows []map[string]string) (map[string]bool, bool) {
	col, ok := EmailColumn(header)
	if !ok {
		return nil, false
	}

	set := make(map[string]bool)
	for _, row := range rows {
		raw := row[col]
		if raw == "" {
			continue
		}
		email := lowerEmail(raw)
		if IsValidEmail(email) {
			set[email] = true
		}
	}
	return set, true
}

// Annotate appends tag to the Notes of every keyed record whose email is in
// the suppression set. A record already carrying the tag is left alone, so
// running the same annotation twice does not stack tags. No-email rows are
// never annotated; they have no key to match on.
func (m *Merger) Annotate(tag string, emails map[string]bool) {
	for _, key := range m.order {
		if !emails[key] {
			continue
		}
		rec := m.byEmail[key]
		if !rec.HasNote(tag) {
			rec.AppendNote(tag)
		}
	}
}
