// Package pdftext reduces text extracted from a scanned customer report to
// contact rows. The report is a paginated "Customer E-mail by Last Name"
// listing: one contact per line, except where a long name or company wraps
// onto the line above its email. PDF extraction itself is out of scope; the
// caller hands this package the already-extracted text.
package pdftext

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// DefaultExcludedPhrases matches the header and footer furniture of the shop
// report layout. A line containing any of these is dropped before parsing.
var DefaultExcludedPhrases = []string{
	"Customer E-mail by Last Name Printed:",
	"E-mail Address Customer Name Company",
	"Mitchell Repair Information Company",
	"Page ",
}

// Row is one contact recovered from the report. Exactly one of CustomerName
// and Company is set: report entries with a comma are people ("Last, First"),
// entries without are companies.
type Row struct {
	Email        string
	CustomerName string
	Company      string
}

// Parser extracts contact rows from report text.
type Parser struct {
	excluded []string
}

// NewParser returns a Parser that drops lines containing any of the given
// phrases. With no arguments, DefaultExcludedPhrases is used.
func NewParser(excluded ...string) *Parser {
	if len(excluded) == 0 {
		excluded = DefaultExcludedPhrases
	}
	return &Parser{excluded: excluded}
}

// Parse scans the extracted text and returns one Row per email found.
//
// Lines without an email are buffered: report entries wrap, so the name or
// company can arrive on the line before its address. When a line with an
// email appears, the buffer and that line are joined and parsed as one
// entry. Leftover buffered lines at the end carry no email and are dropped.
func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	var rows []Row
	var buffer []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || p.headerOrFooter(line) {
			continue
		}

		if !emailRegex.MatchString(line) {
			buffer = append(buffer, line)
			continue
		}

		combined := strings.Join(append(buffer, line), " ")
		buffer = buffer[:0]

		if row, ok := parseEntry(combined); ok {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rows, nil
}

func (p *Parser) headerOrFooter(line string) bool {
	for _, phrase := range p.excluded {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}

// parseEntry splits one joined entry into its email and name-or-company
// remainder. The report prints either "email name" or "name email"; whichever
// side of the email is non-empty is the remainder. A comma marks a personal
// name; anything else is a company.
func parseEntry(line string) (Row, bool) {
	loc := emailRegex.FindStringIndex(line)
	if loc == nil {
		return Row{}, false
	}

	email := line[loc[0]:loc[1]]
	before := strings.TrimSpace(line[:loc[0]])
	after := strings.TrimSpace(line[loc[1]:])

	remainder := before
	if after != "" {
		remainder = after
	}

	row := Row{Email: email}
	if strings.Contains(remainder, ",") {
		row.CustomerName = remainder
	} else {
		row.Company = remainder
	}
	return row, true
}

// Records converts parsed rows into field maps in the shop source's column
// layout, ready for the merge pipeline.
func Records(rows []Row) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		out[i] = map[string]string{
			"e-mail address": row.Email,
			"customer name":  row.CustomerName,
			"company":        row.Company,
		}
	}
	return out
}
