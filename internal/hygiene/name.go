package hygiene

import (
	"regexp"
	"strings"
	"unicode"
)

// nicknameRegex matches a formal name immediately followed by a parenthesized
// nickname, e.g. `Robert (Bob)`. The nickname replaces the formal name.
var nicknameRegex = regexp.MustCompile(`(\w+)\s*\((\w+)\)`)

// SplitName splits a raw display name into normalized (last, first) parts.
//
// Display names come in as "Last, First", sometimes with no comma, sometimes
// with a parenthesized nickname, sometimes padded with redaction placeholders
// or account numbers. The split is on the LAST ", " occurrence so that
// multi-part surnames like "Smith, Jones, Bob" keep "Smith, Jones" together
// as the last name. When a nickname pattern appears in the first-name
// candidate, the nickname replaces the formal name and any trailing text
// after the closing parenthesis is preserved: "Robert (Bob) Jr" -> "Bob Jr".
//
// Both parts are cleaned of noise tokens and title-cased before returning.
// The mapping is one-way only: there is no joinName.
func SplitName(name string) (lastName, firstName string) {
	if name == "" {
		return "", ""
	}

	if idx := strings.LastIndex(name, ", "); idx != -1 {
		lastName = strings.TrimSpace(name[:idx])
		firstName = strings.TrimSpace(name[idx+2:])

		if loc := nicknameRegex.FindStringSubmatchIndex(firstName); loc != nil {
			nickname := firstName[loc[4]:loc[5]]
			remainder := strings.TrimSpace(firstName[loc[1]:])
			if remainder != "" {
				firstName = nickname + " " + remainder
			} else {
				firstName = nickname
			}
		}

		return titleCase(cleanNamePart(lastName)), titleCase(cleanNamePart(firstName))
	}

	// No comma. The whole string is a last-name candidate, but a nickname
	// pattern can still mark where the first name begins.
	if loc := nicknameRegex.FindStringSubmatchIndex(name); loc != nil {
		lastName = strings.TrimSpace(name[:loc[0]])
		nickname := name[loc[4]:loc[5]]
		remainder := strings.TrimSpace(name[loc[1]:])
		if remainder != "" {
			firstName = nickname + " " + remainder
		} else {
			firstName = nickname
		}

		return titleCase(cleanNamePart(lastName)), titleCase(cleanNamePart(firstName))
	}

	return titleCase(cleanNamePart(strings.TrimSpace(name))), ""
}

// cleanNamePart drops noise tokens from a name fragment: anything containing
// the redaction placeholder "XX" (case-insensitive) and anything containing
// a digit. Surviving tokens are rejoined with single spaces.
func cleanNamePart(part string) string {
	if part == "" {
		return part
	}

	var kept []string
	for _, word := range strings.Fields(part) {
		if strings.Contains(strings.ToUpper(word), "XX") {
			continue
		}
		if strings.ContainsFunc(word, unicode.IsDigit) {
			continue
		}
		kept = append(kept, word)
	}

	return strings.Join(kept, " ")
}

// titleCase uppercases every letter that follows a non-letter and lowercases
// the rest, so "O'NEIL, SEAN" becomes "O'Neil, Sean". This matches the
// casing the marketing platform expects for apostrophes and hyphens, which
// plain per-word capitalization would get wrong.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}

	return b.String()
}
