package csvio

import (
	"strings"
	"testing"
)

func TestReadTable(t *testing.T) {
	t.Run("basic table", func(t *testing.T) {
		input := "EMAIL,NAME,COMPANY_NAME\na@b.com,\"Smith, John\",Acme\n"
		table, err := ReadTable(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if len(table.Rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(table.Rows))
		}
		row := table.Rows[0]
		if row["EMAIL"] != "a@b.com" || row["NAME"] != "Smith, John" || row["COMPANY_NAME"] != "Acme" {
			t.Errorf("unexpected row: %v", row)
		}
	})

	t.Run("utf8 BOM is stripped from first header", func(t *testing.T) {
		input := "\xEF\xBB\xBFEMAIL,NAME\na@b.com,Smith\n"
		table, err := ReadTable(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if table.Header[0] != "EMAIL" {
			t.Errorf("header[0] = %q, want EMAIL", table.Header[0])
		}
	})

	t.Run("ragged short rows read as empty cells", func(t *testing.T) {
		input := "EMAIL,NAME,COMPANY_NAME\na@b.com,Smith\n"
		table, err := ReadTable(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if got := table.Rows[0]["COMPANY_NAME"]; got != "" {
			t.Errorf("COMPANY_NAME = %q, want empty", got)
		}
	})

	t.Run("fully empty rows are skipped", func(t *testing.T) {
		input := "EMAIL,NAME\n,\na@b.com,Smith\n  ,\n"
		table, err := ReadTable(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if len(table.Rows) != 1 {
			t.Errorf("got %d rows, want 1", len(table.Rows))
		}
	})

	t.Run("invalid utf8 bytes become question marks", func(t *testing.T) {
		input := "EMAIL,NAME\na@b.com,Sm\xFFith\n"
		table, err := ReadTable(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ReadTable: %v", err)
		}
		if got := table.Rows[0]["NAME"]; got != "Sm?ith" {
			t.Errorf("NAME = %q, want Sm?ith", got)
		}
	})

	t.Run("empty input is an error", func(t *testing.T) {
		if _, err := ReadTable(strings.NewReader("")); err == nil {
			t.Error("expected an error for empty input")
		}
	})
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Acme", want: "Acme"},
		{name: "surrounding whitespace", input: "  Acme  ", want: "Acme"},
		{name: "excel formula guard", input: `="00123"`, want: "00123"},
		{name: "bare equals untouched", input: "=SUM(A1)", want: "=SUM(A1)"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasColumns(t *testing.T) {
	table := &Table{Header: []string{"EMAIL", "NAME"}}

	if col, ok := table.HasColumns([]string{"EMAIL"}); !ok {
		t.Errorf("HasColumns(EMAIL) missing %q", col)
	}
	if col, ok := table.HasColumns([]string{"EMAIL", "COMPANY_NAME"}); ok || col != "COMPANY_NAME" {
		t.Errorf("HasColumns = (%q, %v), want (COMPANY_NAME, false)", col, ok)
	}
}

func TestWriteTable(t *testing.T) {
	var b strings.Builder
	err := WriteTable(&b, []string{"EMAIL", "Notes"}, []map[string]string{
		{"EMAIL": "a@b.com", "Notes": "Bounced; DUPLICATE"},
		{"EMAIL": "c@d.com"},
	})
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	want := "EMAIL,Notes\na@b.com,Bounced; DUPLICATE\nc@d.com,\n"
	if b.String() != want {
		t.Errorf("output = %q, want %q", b.String(), want)
	}
}
