package scripture

import "testing"

// TestParseRef verifies both separator forms parse to the same
// coordinate.
func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{"2-155", Ref{2, 155}, false},
		{"2:155", Ref{2, 155}, false},
		{" 2-155 ", Ref{2, 155}, false},
		{"114-6", Ref{114, 6}, false},
		{"2-153-157", Ref{}, true}, // ranges need ParseRefList
		{"abc", Ref{}, true},
		{"2", Ref{}, true},
		{"", Ref{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRef(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRef(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestParseRefListOrderAndDedup verifies list parsing preserves
// first-seen order and drops duplicates.
func TestParseRefListOrderAndDedup(t *testing.T) {
	refs, diags := ParseRefList("2-155, 2:153\n2-155; 3-8")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []Ref{{2, 155}, {2, 153}, {3, 8}}
	if len(refs) != len(want) {
		t.Fatalf("expected %d refs, got %d: %v", len(want), len(refs), refs)
	}
	for i, r := range want {
		if refs[i] != r {
			t.Errorf("refs[%d] = %v, want %v", i, refs[i], r)
		}
	}
}

// TestParseRefListRange verifies range tokens expand inclusively.
func TestParseRefListRange(t *testing.T) {
	refs, diags := ParseRefList("2-153-157")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(refs) != 5 {
		t.Fatalf("expected 5 refs, got %d: %v", len(refs), refs)
	}
	if refs[0] != (Ref{2, 153}) || refs[4] != (Ref{2, 157}) {
		t.Errorf("range bounds wrong: %v", refs)
	}
}

// TestParseRefListDiagnostics verifies malformed tokens are dropped
// with diagnostics while valid tokens survive.
func TestParseRefListDiagnostics(t *testing.T) {
	refs, diags := ParseRefList("2-155, bogus, 0-3, 2-157-153")
	if len(refs) != 1 || refs[0] != (Ref{2, 155}) {
		t.Errorf("expected only 2-155 to survive, got %v", refs)
	}
	if len(diags) != 3 {
		t.Errorf("expected 3 diagnostics, got %v", diags)
	}
}

// TestParseRefListEmpty verifies empty input yields nothing.
func TestParseRefListEmpty(t *testing.T) {
	refs, diags := ParseRefList("  \n ")
	if len(refs) != 0 || len(diags) != 0 {
		t.Errorf("expected empty result, got refs=%v diags=%v", refs, diags)
	}
}

// TestRefString verifies the canonical form.
func TestRefString(t *testing.T) {
	if got := (Ref{2, 155}).String(); got != "2-155" {
		t.Errorf("Ref.String() = %q, want 2-155", got)
	}
}
