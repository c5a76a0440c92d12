package backup

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/annotation"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/core/scripture"
	"github.com/hafizlab/alfurqan/core/sqlite"
)

type fixture struct {
	db          *sql.DB
	annotations *annotation.Store
	exchange    *Exchange
	owner       access.Actor
	restored    access.Actor
	scholar     access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	stmts := []string{
		`INSERT INTO surahs (number, name_arabic, ayah_count) VALUES (2, 'البقرة', 286)`,
		`INSERT INTO ayahs (surah, ayah_number, arabic_text) VALUES (2, 153, 'يَا أَيُّهَا الَّذِينَ آمَنُوا')`,
		`INSERT INTO ayahs (surah, ayah_number, arabic_text) VALUES (2, 155, 'وَلَنَبْلُوَنَّكُم')`,
		`INSERT INTO ayahs (surah, ayah_number, arabic_text) VALUES (2, 255, 'اللَّهُ لَا إِلَٰهَ إِلَّا هُوَ')`,
		`INSERT INTO users (id, username, password_hash, role) VALUES (1, 'owner', '', 'User')`,
		`INSERT INTO users (id, username, password_hash, role) VALUES (2, 'restored', '', 'User')`,
		`INSERT INTO users (id, username, password_hash, role) VALUES (3, 'scholar', '', 'Ulama')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	text := scripture.New(db)
	annotations := annotation.New(db, text)
	return &fixture{
		db:          db,
		annotations: annotations,
		exchange:    NewExchange(annotations),
		owner:       access.Actor{ID: 1, Role: access.User},
		restored:    access.Actor{ID: 2, Role: access.User},
		scholar:     access.Actor{ID: 3, Role: access.Ulama},
	}
}

func (f *fixture) seedAnnotations(t *testing.T) {
	t.Helper()
	if _, err := f.annotations.SaveTafsir(f.owner, 2, 255, "Ayat al-Kursi notes"); err != nil {
		t.Fatalf("seed tafsir failed: %v", err)
	}
	if _, err := f.annotations.SaveTheme(f.owner, "Patience", "sabr", "2-153, 2-155", ""); err != nil {
		t.Fatalf("seed theme failed: %v", err)
	}
	if _, err := f.annotations.UpdateHifz(f.owner, 2, 255, annotation.HifzMemorized); err != nil {
		t.Fatalf("seed hifz failed: %v", err)
	}
	if _, err := f.annotations.LogRecitation(f.owner, 2, 150, 157, "after fajr"); err != nil {
		t.Fatalf("seed recitation failed: %v", err)
	}
	if _, err := f.annotations.SaveRootNote(f.owner, "صبر", "patience, endurance"); err != nil {
		t.Fatalf("seed root note failed: %v", err)
	}
}

// TestExportImportRoundTrip verifies a full export restores into a
// different account.
func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedAnnotations(t)

	doc, err := f.exchange.Export(f.owner)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if doc.Version != DocumentVersion || doc.ID == "" {
		t.Errorf("document header = %+v", doc)
	}
	if len(doc.Tafsir) != 1 || len(doc.Themes) != 1 || len(doc.Hifz) != 1 ||
		len(doc.Recitations) != 1 || len(doc.RootNotes) != 1 {
		t.Fatalf("unexpected document shape: %+v", doc)
	}

	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !report.Applied || len(report.Diagnostics) != 0 {
		t.Fatalf("report = %+v", report)
	}

	h, err := f.annotations.Hifz(f.restored, 2, 255)
	if err != nil {
		t.Fatalf("restored hifz missing: %v", err)
	}
	if h.Status != annotation.HifzMemorized {
		t.Errorf("restored status = %s", h.Status)
	}

	theme, err := f.annotations.ThemeByName(f.restored, "Patience")
	if err != nil {
		t.Fatalf("restored theme missing: %v", err)
	}
	if len(theme.Ayahs) != 2 {
		t.Errorf("restored theme ayahs = %v", theme.Ayahs)
	}

	notes, err := f.annotations.ListRootNotes(f.restored, annotation.IntentOwn)
	if err != nil {
		t.Fatalf("list root notes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].RootWord != "صبر" {
		t.Errorf("restored root notes = %v", notes)
	}
}

// TestImportAllOrNothing verifies that one bad entry rolls back the
// entire document, valid entries included.
func TestImportAllOrNothing(t *testing.T) {
	f := newFixture(t)

	doc := &Document{
		Version: DocumentVersion,
		ID:      "test",
		Hifz:    []HifzEntry{{Surah: 2, Ayah: 255, Status: annotation.HifzMemorized}},
		Themes: []ThemeEntry{{
			Name:  "Broken",
			Ayahs: []scripture.Ref{{Surah: 98, Ayah: 1}},
		}},
	}
	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if report.Applied {
		t.Fatal("expected report not applied")
	}
	if len(report.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}

	// The valid hifz entry must not have survived.
	if _, err := f.annotations.Hifz(f.restored, 2, 255); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected rollback to drop hifz entry, got %v", err)
	}
	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM themes`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no themes after rollback, got %d", n)
	}
}

// TestImportUnknownRecitationSurah verifies a recitation entry naming
// a surah the store does not hold is diagnosed and rolls back the
// document like any other unresolvable reference.
func TestImportUnknownRecitationSurah(t *testing.T) {
	f := newFixture(t)

	doc := &Document{
		Version:     DocumentVersion,
		ID:          "test",
		Hifz:        []HifzEntry{{Surah: 2, Ayah: 255, Status: annotation.HifzMemorized}},
		Recitations: []RecitationEntry{{Surah: 99, AyahFrom: 1, AyahTo: 5}},
	}
	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if report.Applied {
		t.Fatal("expected report not applied")
	}
	if len(report.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", report.Diagnostics)
	}
	if _, err := f.annotations.Hifz(f.restored, 2, 255); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected rollback to drop hifz entry, got %v", err)
	}
	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM recitation_logs WHERE user_id = ?`,
		f.restored.ID).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no recitation logs after rollback, got %d", n)
	}
}

// TestImportOnSingleConnectionStore verifies the reference checks run
// on the import transaction's connection: the fixture pool holds
// exactly one connection, so a lookup routed through the pool instead
// of the transaction would never return.
func TestImportOnSingleConnectionStore(t *testing.T) {
	f := newFixture(t)

	doc := &Document{
		Version: DocumentVersion,
		ID:      "test",
		Hifz:    []HifzEntry{{Surah: 2, Ayah: 255, Status: annotation.HifzMemorized}},
	}
	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !report.Applied {
		t.Fatalf("expected applied report, diagnostics = %v", report.Diagnostics)
	}
	if report.Counts["hifz"] != 1 {
		t.Errorf("counts = %v", report.Counts)
	}
}

// TestImportStorageFailure verifies a failing reference lookup aborts
// the import as a storage error instead of surfacing as an
// unknown-ayah diagnostic.
func TestImportStorageFailure(t *testing.T) {
	f := newFixture(t)
	if _, err := f.db.Exec(`DROP TABLE ayahs`); err != nil {
		t.Fatalf("drop failed: %v", err)
	}

	doc := &Document{
		Version: DocumentVersion,
		ID:      "test",
		Hifz:    []HifzEntry{{Surah: 2, Ayah: 255, Status: annotation.HifzMemorized}},
	}
	if _, err := f.exchange.Import(f.restored, doc); !errors.Is(err, errors.ErrStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

// TestImportDuplicateThemeName verifies an existing theme name is a
// diagnostic, not an overwrite.
func TestImportDuplicateThemeName(t *testing.T) {
	f := newFixture(t)
	if _, err := f.annotations.SaveTheme(f.restored, "Patience", "mine", "2-153", ""); err != nil {
		t.Fatalf("seed theme failed: %v", err)
	}

	doc := &Document{
		Version: DocumentVersion,
		ID:      "test",
		Themes: []ThemeEntry{{
			Name:  "Patience",
			Ayahs: []scripture.Ref{{Surah: 2, Ayah: 155}},
		}},
	}
	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if report.Applied {
		t.Fatal("expected rejection")
	}

	theme, err := f.annotations.ThemeByName(f.restored, "Patience")
	if err != nil {
		t.Fatalf("load theme failed: %v", err)
	}
	if theme.Description != "mine" {
		t.Errorf("existing theme was overwritten: %+v", theme)
	}
}

// TestImportDemotesCommunityVisibility verifies community-visible
// entries demote to pending for non-Ulama importers.
func TestImportDemotesCommunityVisibility(t *testing.T) {
	f := newFixture(t)

	doc := &Document{
		Version: DocumentVersion,
		ID:      "test",
		Themes: []ThemeEntry{{
			Name:       "Patience",
			Visibility: annotation.VisibilityCommunityApproved,
			Ayahs:      []scripture.Ref{{Surah: 2, Ayah: 155}},
		}},
	}
	report, err := f.exchange.Import(f.restored, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !report.Applied {
		t.Fatalf("report = %+v", report)
	}
	theme, err := f.annotations.ThemeByName(f.restored, "Patience")
	if err != nil {
		t.Fatalf("load theme failed: %v", err)
	}
	if theme.Visibility != annotation.VisibilityCommunityPending {
		t.Errorf("expected demotion to pending, got %s", theme.Visibility)
	}

	// Ulama importers keep the approved state.
	report, err = f.exchange.Import(f.scholar, doc)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !report.Applied {
		t.Fatalf("report = %+v", report)
	}
	theme, err = f.annotations.ThemeByName(f.scholar, "Patience")
	if err != nil {
		t.Fatalf("load theme failed: %v", err)
	}
	if theme.Visibility != annotation.VisibilityCommunityApproved {
		t.Errorf("expected Ulama import to keep approval, got %s", theme.Visibility)
	}
}

// TestImportVersionMismatch verifies unsupported document versions are
// rejected up front.
func TestImportVersionMismatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.exchange.Import(f.restored, &Document{Version: 99, ID: "test"})
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// TestExportRequiresUser verifies anonymous actors cannot export.
func TestExportRequiresUser(t *testing.T) {
	f := newFixture(t)
	if _, err := f.exchange.Export(access.Anonymous); !errors.Is(err, errors.ErrPermissionDenied) {
		t.Errorf("expected permission denied, got %v", err)
	}
}

// TestFileRoundTrip verifies the on-disk container preserves the
// document byte-for-byte.
func TestFileRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedAnnotations(t)

	doc, err := f.exchange.Export(f.owner)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "backup.afq")
	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if loaded.ID != doc.ID || len(loaded.Themes) != len(doc.Themes) || len(loaded.Hifz) != len(doc.Hifz) {
		t.Errorf("round trip mismatch: %+v != %+v", loaded, doc)
	}
}

// TestFileChecksumMismatch verifies a tampered checksum fails
// validation.
func TestFileChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.afq")
	doc := &Document{Version: DocumentVersion, ID: "test"}
	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	headerLine, err := bufio.NewReader(bytes.NewReader(raw)).ReadBytes('\n')
	if err != nil {
		t.Fatalf("header read failed: %v", err)
	}
	var header fileHeader
	if err := json.Unmarshal(headerLine, &header); err != nil {
		t.Fatalf("header parse failed: %v", err)
	}
	header.Checksum = "0000000000000000000000000000000000000000000000000000000000000000"
	tampered, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("header marshal failed: %v", err)
	}
	out := append(append(tampered, '\n'), raw[len(headerLine):]...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	if _, err := ReadFile(path); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// TestFileRejectsGarbage verifies a non-container file fails cleanly.
func TestFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.afq")
	if err := os.WriteFile(path, []byte("not a backup\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := ReadFile(path); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
