package hygiene

import "testing"

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLast  string
		wantFirst string
	}{
		{
			name:      "empty input",
			input:     "",
			wantLast:  "",
			wantFirst: "",
		},
		{
			name:      "simple last comma first",
			input:     "Smith, John",
			wantLast:  "Smith",
			wantFirst: "John",
		},
		{
			name:      "uppercase input is recased",
			input:     "LUKACS, JAYMI",
			wantLast:  "Lukacs",
			wantFirst: "Jaymi",
		},
		{
			name:      "nickname replaces formal name keeping suffix",
			input:     "Smith, Robert (Bob) Jr",
			wantLast:  "Smith",
			wantFirst: "Bob Jr",
		},
		{
			name:      "nickname without suffix",
			input:     "Smith, Robert (Bob)",
			wantLast:  "Smith",
			wantFirst: "Bob",
		},
		{
			name:      "splits on last comma",
			input:     "O'Neil, Sean, Jr",
			wantLast:  "O'Neil, Sean",
			wantFirst: "Jr",
		},
		{
			name:      "multi part surname",
			input:     "Smith, Jones, Bob",
			wantLast:  "Smith, Jones",
			wantFirst: "Bob",
		},
		{
			name:      "no comma treats whole string as last name",
			input:     "Acme Motors",
			wantLast:  "Acme Motors",
			wantFirst: "",
		},
		{
			name:      "no comma with nickname",
			input:     "Smith Robert (Bob)",
			wantLast:  "Smith",
			wantFirst: "Bob",
		},
		{
			name:      "no comma with nickname and suffix",
			input:     "Smith Robert (Bob) III",
			wantLast:  "Smith",
			wantFirst: "Bob Iii",
		},
		{
			name:      "redaction placeholders dropped",
			input:     "Smith XX1234, John",
			wantLast:  "Smith",
			wantFirst: "John",
		},
		{
			name:      "tokens with digits dropped",
			input:     "Smith 42, John 7",
			wantLast:  "Smith",
			wantFirst: "John",
		},
		{
			name:      "all noise yields empty parts",
			input:     "XXXX 123",
			wantLast:  "",
			wantFirst: "",
		},
		{
			name:      "apostrophe casing",
			input:     "o'neil, sean",
			wantLast:  "O'Neil",
			wantFirst: "Sean",
		},
		{
			name:      "hyphenated surname casing",
			input:     "smith-jones, amy",
			wantLast:  "Smith-Jones",
			wantFirst: "Amy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLast, gotFirst := SplitName(tt.input)
			if gotLast != tt.wantLast || gotFirst != tt.wantFirst {
				t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)",
					tt.input, gotLast, gotFirst, tt.wantLast, tt.wantFirst)
			}
		})
	}
}

func TestCleanNamePart(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "clean name untouched", input: "Sean O'Neil", want: "Sean O'Neil"},
		{name: "redaction dropped case insensitive", input: "Sean xxon", want: "Sean"},
		{name: "digits dropped", input: "Unit 12 Sean", want: "Unit Sean"},
		{name: "whitespace collapsed", input: "  Sean   O'Neil  ", want: "Sean O'Neil"},
		{name: "everything dropped", input: "XX 99", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanNamePart(tt.input); got != tt.want {
				t.Errorf("cleanNamePart(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "lowercases tails", input: "JOHN SMITH", want: "John Smith"},
		{name: "apostrophe boundary", input: "o'neil", want: "O'Neil"},
		{name: "hyphen boundary", input: "smith-jones", want: "Smith-Jones"},
		{name: "comma preserved", input: "o'neil, sean", want: "O'Neil, Sean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleCase(tt.input); got != tt.want {
				t.Errorf("titleCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
