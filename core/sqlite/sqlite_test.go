package sqlite

import (
	"path/filepath"
	"testing"
)

// TestOpenMemory verifies an in-memory store opens with the expected
// pragmas applied.
func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	defer db.Close()

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("failed to read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Error("expected foreign_keys to be enabled")
	}
}

// TestMigrateCreatesSchema verifies Migrate creates the core tables and
// is safe to run twice.
func TestMigrateCreatesSchema(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	for _, table := range []string{
		"surahs", "ayahs", "ayah_translations", "word_dictionary",
		"ayah_word_mapping", "users", "user_tafsir", "themes",
		"theme_ayah_links", "hifz_tracking", "recitation_logs",
		"root_notes", "contributions", "app_settings",
	} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		if err != nil {
			t.Fatalf("failed to query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

// TestSurahNumberCheck verifies the surah number range constraint.
func TestSurahNumberCheck(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	defer db.Close()
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO surahs (number) VALUES (115)`); err == nil {
		t.Error("expected surah number 115 to violate the range check")
	}
	if _, err := db.Exec(`INSERT INTO surahs (number) VALUES (114)`); err != nil {
		t.Errorf("surah number 114 should be accepted: %v", err)
	}
}

// TestOpenFile verifies a file-backed store opens and persists a write.
func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO app_settings (key, value) VALUES ('schema', '1')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var value string
	if err := db.QueryRow(`SELECT value FROM app_settings WHERE key = 'schema'`).Scan(&value); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if value != "1" {
		t.Errorf("expected value 1, got %q", value)
	}
}

// TestGetInfo verifies driver info is internally consistent.
func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("info driver name %q != DriverName() %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Error("info IsCGO disagrees with IsCGO()")
	}
	if info.DriverType != "cgo" && info.DriverType != "purego" {
		t.Errorf("unexpected driver type %q", info.DriverType)
	}
}
