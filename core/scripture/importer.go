package scripture

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/internal/logging"
)

// Report summarizes one import run. Per-row problems are collected as
// diagnostics instead of failing the file; only a storage failure
// aborts (and rolls back) the whole file.
type Report struct {
	Imported    int      `json:"imported"`
	Skipped     int      `json:"skipped"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (r *Report) skip(format string, args ...interface{}) {
	r.Skipped++
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// DictionaryRow is one record of a dictionary import file:
// (id?, text, ur_meaning?, en_meaning?). ID is kept as text because the
// source files may carry blanks or garbage there; validation happens
// during import.
type DictionaryRow struct {
	ID        string
	Text      string
	UrMeaning string
	EnMeaning string
}

// MappingRow is one record of a word-position mapping file:
// (word_ref, surah, ayah, position). WordRef resolves against the
// dictionary by numeric id, or by literal text when non-numeric.
type MappingRow struct {
	WordRef  string
	Surah    int
	Ayah     int
	Position int
}

// TranslationRow is one record of an ayah translation file:
// (surah, ayah, text).
type TranslationRow struct {
	Surah int
	Ayah  int
	Text  string
}

// Importer performs bulk, transactional ingestion into the reference
// text store. Each Import* call is one transaction: a storage error
// rolls back every row of that file.
type Importer struct {
	db *sql.DB
}

// NewImporter creates an Importer over an opened and migrated database.
func NewImporter(db *sql.DB) *Importer {
	return &Importer{db: db}
}

// ImportDictionary ingests dictionary rows. Rows with a supplied id are
// upserted by id (last writer wins on text and meanings); rows without
// an id insert new entries. Rows with empty text or a non-numeric id
// are skipped and counted, not fatal.
func (im *Importer) ImportDictionary(rows []DictionaryRow) (*Report, error) {
	tx, err := im.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	report := &Report{}
	upsert, err := tx.Prepare(`INSERT INTO word_dictionary (id, quran_text, ur_meaning, en_meaning)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			quran_text = excluded.quran_text,
			ur_meaning = excluded.ur_meaning,
			en_meaning = excluded.en_meaning`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer upsert.Close()
	insert, err := tx.Prepare(`INSERT INTO word_dictionary (quran_text, ur_meaning, en_meaning)
		VALUES (?, ?, ?)`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer insert.Close()

	for i, row := range rows {
		text := strings.TrimSpace(row.Text)
		if text == "" {
			report.skip("row %d: empty word text", i+1)
			continue
		}
		if id := strings.TrimSpace(row.ID); id != "" {
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				report.skip("row %d: non-numeric id %q", i+1, id)
				continue
			}
			if _, err := upsert.Exec(n, text, nullable(row.UrMeaning), nullable(row.EnMeaning)); err != nil {
				return nil, errors.NewStorage("upsert word", err)
			}
		} else {
			if _, err := insert.Exec(text, nullable(row.UrMeaning), nullable(row.EnMeaning)); err != nil {
				return nil, errors.NewStorage("insert word", err)
			}
		}
		report.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}
	logging.ImportSummary("dictionary", report.Imported, report.Skipped)
	return report, nil
}

// ImportWordPositionMapping ingests word-position rows. Unresolved word
// references are skipped with a diagnostic: mapping files are commonly
// imported against a dictionary loaded moments earlier and must
// tolerate partial dictionaries. Inserts ignore duplicate
// (surah, ayah, position) keys, so re-running an import is idempotent.
func (im *Importer) ImportWordPositionMapping(rows []MappingRow) (*Report, error) {
	tx, err := im.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	report := &Report{}
	byID, err := tx.Prepare(`SELECT COUNT(*) FROM word_dictionary WHERE id = ?`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer byID.Close()
	byText, err := tx.Prepare(`SELECT id FROM word_dictionary WHERE quran_text = ? ORDER BY id LIMIT 1`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer byText.Close()
	insert, err := tx.Prepare(`INSERT OR IGNORE INTO ayah_word_mapping (word_id, surah, ayah, word_position)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer insert.Close()

	for i, row := range rows {
		if row.Surah <= 0 || row.Ayah <= 0 || row.Position <= 0 {
			report.skip("row %d: invalid coordinates %d-%d position %d", i+1, row.Surah, row.Ayah, row.Position)
			continue
		}
		wordID, ok, err := resolveWordRef(byID, byText, row.WordRef)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.skip("row %d: unresolved word reference %q", i+1, row.WordRef)
			continue
		}
		res, err := insert.Exec(wordID, row.Surah, row.Ayah, row.Position)
		if err != nil {
			return nil, errors.NewStorage("insert mapping", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Duplicate (surah, ayah, position): already imported.
			report.Skipped++
			continue
		}
		report.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}
	logging.ImportSummary("word-position mapping", report.Imported, report.Skipped)
	return report, nil
}

func resolveWordRef(byID, byText *sql.Stmt, ref string) (int64, bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		var n int
		if err := byID.QueryRow(id).Scan(&n); err != nil {
			return 0, false, errors.NewStorage("resolve word", err)
		}
		return id, n > 0, nil
	}
	var id int64
	err := byText.QueryRow(ref).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.NewStorage("resolve word", err)
	}
	return id, true, nil
}

// ImportTextXML seeds surahs and ayah text from a Tanzil-style XML
// document (<sura index="1" name="..."><aya index="1" text="..."/>).
// Existing ayahs are left untouched, so re-running the import is
// idempotent. Surah ayah counts are recomputed from the document.
func (im *Importer) ImportTextXML(r io.Reader) (*Report, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.NewValidation("xml", err.Error())
	}

	tx, err := im.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	report := &Report{}
	surahStmt, err := tx.Prepare(`INSERT INTO surahs (number, name_arabic, ayah_count)
		VALUES (?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name_arabic = excluded.name_arabic,
			ayah_count = excluded.ayah_count`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer surahStmt.Close()
	ayahStmt, err := tx.Prepare(`INSERT OR IGNORE INTO ayahs (surah, ayah_number, arabic_text)
		VALUES (?, ?, ?)`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer ayahStmt.Close()

	suras := xmlquery.Find(doc, "//sura")
	if len(suras) == 0 {
		return nil, errors.NewValidation("xml", "no sura elements found")
	}
	for _, sura := range suras {
		number, err := strconv.Atoi(sura.SelectAttr("index"))
		if err != nil || number < 1 || number > 114 {
			report.skip("sura with invalid index %q", sura.SelectAttr("index"))
			continue
		}
		ayas := xmlquery.Find(sura, "aya")
		if _, err := surahStmt.Exec(number, sura.SelectAttr("name"), len(ayas)); err != nil {
			return nil, errors.NewStorage("upsert surah", err)
		}
		for _, aya := range ayas {
			ayahNumber, err := strconv.Atoi(aya.SelectAttr("index"))
			if err != nil || ayahNumber < 1 {
				report.skip("sura %d: aya with invalid index %q", number, aya.SelectAttr("index"))
				continue
			}
			text := aya.SelectAttr("text")
			if text == "" {
				report.skip("sura %d aya %d: empty text", number, ayahNumber)
				continue
			}
			if _, err := ayahStmt.Exec(number, ayahNumber, text); err != nil {
				return nil, errors.NewStorage("insert ayah", err)
			}
			report.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}
	logging.ImportSummary("quran text", report.Imported, report.Skipped)
	return report, nil
}

// ImportAyahTranslations ingests per-ayah translations for one
// language. Rows referencing unknown ayahs are skipped with a
// diagnostic.
func (im *Importer) ImportAyahTranslations(rows []TranslationRow, lang string) (*Report, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, errors.NewValidation("lang", "language code required")
	}

	tx, err := im.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	report := &Report{}
	lookup, err := tx.Prepare(`SELECT id FROM ayahs WHERE surah = ? AND ayah_number = ?`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer lookup.Close()
	upsert, err := tx.Prepare(`INSERT INTO ayah_translations (ayah_id, lang, text)
		VALUES (?, ?, ?)
		ON CONFLICT(ayah_id, lang) DO UPDATE SET text = excluded.text`)
	if err != nil {
		return nil, errors.NewStorage("prepare", err)
	}
	defer upsert.Close()

	for i, row := range rows {
		if strings.TrimSpace(row.Text) == "" {
			report.skip("row %d: empty translation text", i+1)
			continue
		}
		var ayahID int64
		err := lookup.QueryRow(row.Surah, row.Ayah).Scan(&ayahID)
		if err == sql.ErrNoRows {
			report.skip("row %d: unknown ayah %d-%d", i+1, row.Surah, row.Ayah)
			continue
		}
		if err != nil {
			return nil, errors.NewStorage("resolve ayah", err)
		}
		if _, err := upsert.Exec(ayahID, lang, row.Text); err != nil {
			return nil, errors.NewStorage("upsert translation", err)
		}
		report.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}
	logging.ImportSummary("ayah translations ("+lang+")", report.Imported, report.Skipped)
	return report, nil
}

func nullable(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
