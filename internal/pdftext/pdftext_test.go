package pdftext

import (
	"strings"
	"testing"
)

const sampleReport = `Customer E-mail by Last Name Printed: 03/26/2025
E-mail Address Customer Name Company
jaymiseo@gmail.com LUKACS, JAYMI
ACME MOTORS LLC
fleet@acmemotors.com
O'NEIL, SEAN seano@example.com
Page 1 of 212
`

func TestParse(t *testing.T) {
	rows, err := NewParser().Parse(strings.NewReader(sampleReport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Row{
		{Email: "jaymiseo@gmail.com", CustomerName: "LUKACS, JAYMI"},
		{Email: "fleet@acmemotors.com", Company: "ACME MOTORS LLC"},
		{Email: "seano@example.com", CustomerName: "O'NEIL, SEAN"},
	}

	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestParseBuffersWrappedLines(t *testing.T) {
	input := "VERY LONG COMPANY NAME\nWITH A SECOND LINE\nfleet@example.com\n"
	rows, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Company != "VERY LONG COMPANY NAME WITH A SECOND LINE" {
		t.Errorf("company = %q", rows[0].Company)
	}
}

func TestParseDropsTrailingBuffer(t *testing.T) {
	input := "a@b.com SMITH, JOHN\nLEFTOVER TEXT WITHOUT EMAIL\n"
	rows, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestParseCustomExcludedPhrases(t *testing.T) {
	input := "SECRET FOOTER a@b.com\nc@d.com SMITH, JOHN\n"
	rows, err := NewParser("SECRET FOOTER").Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "c@d.com" {
		t.Errorf("rows = %v, want only c@d.com", rows)
	}
}

func TestRecords(t *testing.T) {
	recs := Records([]Row{{Email: "a@b.com", CustomerName: "SMITH, JOHN"}})
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0]["e-mail address"] != "a@b.com" || recs[0]["customer name"] != "SMITH, JOHN" {
		t.Errorf("record = %v", recs[0])
	}
	if recs[0]["company"] != "" {
		t.Errorf("company = %q, want empty", recs[0]["company"])
	}
}
