package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaStatements is the relational schema of the core. Tables follow
// the reference-text / annotation split: everything above users is
// immutable after import, everything below is per-user mutable content.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS surahs (
		number INTEGER PRIMARY KEY CHECK (number BETWEEN 1 AND 114),
		name_arabic TEXT NOT NULL DEFAULT '',
		name_english TEXT NOT NULL DEFAULT '',
		ayah_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS ayahs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		surah INTEGER NOT NULL REFERENCES surahs(number),
		ayah_number INTEGER NOT NULL,
		arabic_text TEXT NOT NULL,
		UNIQUE (surah, ayah_number)
	)`,
	`CREATE TABLE IF NOT EXISTS ayah_translations (
		ayah_id INTEGER NOT NULL REFERENCES ayahs(id) ON DELETE CASCADE,
		lang TEXT NOT NULL,
		text TEXT NOT NULL,
		UNIQUE (ayah_id, lang)
	)`,
	`CREATE TABLE IF NOT EXISTS word_dictionary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quran_text TEXT NOT NULL,
		ur_meaning TEXT,
		en_meaning TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_word_dictionary_text ON word_dictionary(quran_text)`,
	`CREATE TABLE IF NOT EXISTS ayah_word_mapping (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word_id INTEGER NOT NULL REFERENCES word_dictionary(id),
		surah INTEGER NOT NULL,
		ayah INTEGER NOT NULL,
		word_position INTEGER NOT NULL,
		UNIQUE (surah, ayah, word_position)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'Public',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS user_tafsir (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		surah INTEGER NOT NULL,
		ayah INTEGER NOT NULL,
		notes TEXT NOT NULL,
		visibility TEXT NOT NULL DEFAULT 'Private',
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (user_id, surah, ayah)
	)`,
	`CREATE TABLE IF NOT EXISTS themes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL DEFAULT 'Private',
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS theme_ayah_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		theme_id INTEGER NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
		surah INTEGER NOT NULL,
		ayah INTEGER NOT NULL,
		UNIQUE (theme_id, surah, ayah)
	)`,
	`CREATE TABLE IF NOT EXISTS hifz_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		surah INTEGER NOT NULL,
		ayah INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'NotStarted',
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (user_id, surah, ayah)
	)`,
	`CREATE TABLE IF NOT EXISTS recitation_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		surah INTEGER NOT NULL,
		ayah_from INTEGER NOT NULL,
		ayah_to INTEGER NOT NULL,
		recited_at TEXT NOT NULL DEFAULT (datetime('now')),
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS root_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		root_word TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL DEFAULT 'Private',
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (user_id, root_word)
	)`,
	`CREATE TABLE IF NOT EXISTS contributions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('WordMeaning', 'Tafsir', 'Theme')),
		related_id INTEGER NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Approved', 'Rejected')),
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		resolved_at TEXT,
		resolved_by INTEGER REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_status ON contributions(status)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist. Safe to call on
// every startup; all statements are IF NOT EXISTS.
func Migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}
