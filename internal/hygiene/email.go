package hygiene

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns (avoids recompilation on each call)
var (
	// emailRegex is deliberately permissive: it rejects obvious garbage
	// (missing @, embedded whitespace, trailing punctuation) while accepting
	// typical business addresses. It makes no attempt at RFC 5322 compliance.
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// separatorRegex matches any run of separators seen in hand-entered
	// multi-address fields: semicolons, commas, whitespace, slashes.
	separatorRegex = regexp.MustCompile(`[;,\s/]+`)
)

// lowerEmail normalizes an address into its join-key form.
func lowerEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidEmail reports whether s looks like a deliverable email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// SplitEmails splits a raw multi-address field into its individual addresses.
//
// Runs of common separators (";", ",", whitespace, "/") are collapsed to a
// single delimiter before splitting. Each surviving part is classified with
// IsValidEmail; valid addresses are returned in their original order and
// are NOT deduplicated here. The second return value reports whether at
// least one non-empty part failed validation.
//
// An empty input yields (nil, false).
func SplitEmails(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}

	normalized := separatorRegex.ReplaceAllString(raw, ",")

	var valid []string
	hasInvalid := false
	for _, part := range strings.Split(normalized, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if IsValidEmail(part) {
			valid = append(valid, part)
		} else {
			hasInvalid = true
		}
	}

	return valid, hasInvalid
}
