package hygiene

import (
	"reflect"
	"testing"
)

func TestEmailColumn(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantCol string
		wantOK  bool
	}{
		{
			name:    "exact match",
			header:  []string{"email"},
			wantCol: "email",
			wantOK:  true,
		},
		{
			name:    "substring case insensitive",
			header:  []string{"Status", "Recipient Email Address"},
			wantCol: "Recipient Email Address",
			wantOK:  true,
		},
		{
			name:    "first match wins",
			header:  []string{"Primary Email", "Alternate Email"},
			wantCol: "Primary Email",
			wantOK:  true,
		},
		{
			name:   "no email column",
			header: []string{"Name", "Company"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := EmailColumn(tt.header)
			if ok != tt.wantOK {
				t.Fatalf("EmailColumn(%v) ok = %v, want %v", tt.header, ok, tt.wantOK)
			}
			if ok && col != tt.wantCol {
				t.Errorf("EmailColumn(%v) = %q, want %q", tt.header, col, tt.wantCol)
			}
		})
	}
}

func TestSuppressionSet(t *testing.T) {
	header := []string{"Email Address", "Reason"}
	rows := []map[string]string{
		{"Email Address": "Anna@Example.com", "Reason": "550"},
		{"Email Address": "not-an-email", "Reason": "550"},
		{"Email Address": "", "Reason": "550"},
		{"Email Address": "bob@example.com"},
	}

	set, ok := SuppressionSet(header, rows)
	if !ok {
		t.Fatal("expected an email column to be found")
	}

	want := map[string]bool{
		"anna@example.com": true,
		"bob@example.com":  true,
	}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("SuppressionSet = %v, want %v", set, want)
	}

	t.Run("no email column", func(t *testing.T) {
		if _, ok := SuppressionSet([]string{"Name"}, nil); ok {
			t.Error("expected ok = false without an email column")
		}
	})
}

func TestAnnotate(t *testing.T) {
	newMerged := func() *Merger {
		m := NewMerger()
		m.LoadAuthoritative([]ContactRecord{
			{Email: "anna@example.com", DisplayName: "Baker, Anna"},
			{Email: "bob@example.com"},
			{Email: "bad-email"},
		})
		m.Finalize()
		return m
	}

	t.Run("appends tag to matching rows only", func(t *testing.T) {
		m := newMerged()
		m.Annotate(NoteBounced, map[string]bool{"anna@example.com": true})

		rec, _ := m.Lookup("anna@example.com")
		if rec.Notes != NoteBounced {
			t.Errorf("notes = %q, want %q", rec.Notes, NoteBounced)
		}
		other, _ := m.Lookup("bob@example.com")
		if other.Notes != "" {
			t.Errorf("unmatched row notes = %q, want empty", other.Notes)
		}
	})

	t.Run("double annotation does not stack tags", func(t *testing.T) {
		m := newMerged()
		set := map[string]bool{"anna@example.com": true}
		m.Annotate(NoteBounced, set)
		m.Annotate(NoteBounced, set)

		rec, _ := m.Lookup("anna@example.com")
		if rec.Notes != NoteBounced {
			t.Errorf("notes = %q, want single %q", rec.Notes, NoteBounced)
		}
	})

	t.Run("tags join existing notes with semicolons", func(t *testing.T) {
		m := newMerged()
		m.Annotate(NoteBounced, map[string]bool{"anna@example.com": true})
		m.Annotate(NoteUnsubscribed, map[string]bool{"anna@example.com": true})

		rec, _ := m.Lookup("anna@example.com")
		want := NoteBounced + "; " + NoteUnsubscribed
		if rec.Notes != want {
			t.Errorf("notes = %q, want %q", rec.Notes, want)
		}
	})
}
