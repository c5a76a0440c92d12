package scripture

import (
	"strings"
	"testing"
)

// TestReadDictionaryCSV verifies both accepted column layouts and the
// header skip.
func TestReadDictionaryCSV(t *testing.T) {
	input := "id,text,ur,en\n1,بسم,نام سے,in the name\n2,الله,,Allah\n"
	rows, diags, err := ReadDictionaryCSV(strings.NewReader(input), true)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != "1" || rows[0].Text != "بسم" || rows[0].EnMeaning != "in the name" {
		t.Errorf("row 0 = %+v", rows[0])
	}

	// Three-column layout has no id.
	rows, _, err = ReadDictionaryCSV(strings.NewReader("بسم,نام سے,in the name\n"), false)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "" || rows[0].Text != "بسم" {
		t.Errorf("three-column row = %+v", rows)
	}
}

// TestReadDictionaryCSVShortRow verifies short rows are dropped with a
// diagnostic.
func TestReadDictionaryCSVShortRow(t *testing.T) {
	rows, diags, err := ReadDictionaryCSV(strings.NewReader("بسم,meaning\n"), false)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
	if len(diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", diags)
	}
}

// TestReadMappingCSV verifies coordinate parsing and the non-numeric
// diagnostic path.
func TestReadMappingCSV(t *testing.T) {
	input := "1,1,1,1\nالله,1,1,2\n1,one,1,3\n"
	rows, diags, err := ReadMappingCSV(strings.NewReader(input), false)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].WordRef != "الله" || rows[1].Position != 2 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if len(diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %v", diags)
	}
}

// TestReadTranslationCSV verifies the (surah, ayah, text) layout.
func TestReadTranslationCSV(t *testing.T) {
	input := "surah,ayah,text\n1,1,In the name of Allah\n"
	rows, diags, err := ReadTranslationCSV(strings.NewReader(input), true)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(rows) != 1 || rows[0].Surah != 1 || rows[0].Ayah != 1 {
		t.Errorf("rows = %+v", rows)
	}
}
