// Package scripture implements the word-indexed reference text store
// and its bulk-import pipeline.
//
// The store is immutable after import: surahs, ayahs, the word
// dictionary and the word-position mapping are only written by the
// Importer (or by an approved word-meaning contribution). All reads go
// through indexes on (surah, ayah_number) and (surah, ayah, position).
package scripture

import (
	"database/sql"
	"fmt"

	"github.com/hafizlab/alfurqan/core/errors"
)

// Store provides read access to the reference text.
type Store struct {
	db *sql.DB
}

// New creates a Store over an opened and migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListSurahs returns all seeded surahs ordered by number.
func (s *Store) ListSurahs() ([]Surah, error) {
	rows, err := s.db.Query(`SELECT number, name_arabic, name_english, ayah_count
		FROM surahs ORDER BY number`)
	if err != nil {
		return nil, errors.NewStorage("list surahs", err)
	}
	defer rows.Close()

	var surahs []Surah
	for rows.Next() {
		var su Surah
		if err := rows.Scan(&su.Number, &su.NameArabic, &su.NameEnglish, &su.AyahCount); err != nil {
			return nil, errors.NewStorage("scan surah", err)
		}
		surahs = append(surahs, su)
	}
	return surahs, rows.Err()
}

// Surah returns one surah by number.
func (s *Store) Surah(number int) (*Surah, error) {
	var su Surah
	err := s.db.QueryRow(`SELECT number, name_arabic, name_english, ayah_count
		FROM surahs WHERE number = ?`, number).
		Scan(&su.Number, &su.NameArabic, &su.NameEnglish, &su.AyahCount)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("surah", fmt.Sprintf("%d", number))
	}
	if err != nil {
		return nil, errors.NewStorage("load surah", err)
	}
	return &su, nil
}

// ListAyahs returns the ayahs of a surah ordered by ayah_number.
// Translations are not populated; use Ayah for a single verse with its
// translation map.
func (s *Store) ListAyahs(surah int) ([]Ayah, error) {
	if _, err := s.Surah(surah); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, surah, ayah_number, arabic_text
		FROM ayahs WHERE surah = ? ORDER BY ayah_number`, surah)
	if err != nil {
		return nil, errors.NewStorage("list ayahs", err)
	}
	defer rows.Close()

	var ayahs []Ayah
	for rows.Next() {
		var a Ayah
		if err := rows.Scan(&a.ID, &a.Surah, &a.Number, &a.ArabicText); err != nil {
			return nil, errors.NewStorage("scan ayah", err)
		}
		ayahs = append(ayahs, a)
	}
	return ayahs, rows.Err()
}

// Ayah returns one ayah with its per-language translation map.
func (s *Store) Ayah(surah, number int) (*Ayah, error) {
	var a Ayah
	err := s.db.QueryRow(`SELECT id, surah, ayah_number, arabic_text
		FROM ayahs WHERE surah = ? AND ayah_number = ?`, surah, number).
		Scan(&a.ID, &a.Surah, &a.Number, &a.ArabicText)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("ayah", fmt.Sprintf("%d-%d", surah, number))
	}
	if err != nil {
		return nil, errors.NewStorage("load ayah", err)
	}

	rows, err := s.db.Query(`SELECT lang, text FROM ayah_translations WHERE ayah_id = ?`, a.ID)
	if err != nil {
		return nil, errors.NewStorage("load translations", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang, text string
		if err := rows.Scan(&lang, &text); err != nil {
			return nil, errors.NewStorage("scan translation", err)
		}
		if a.Translations == nil {
			a.Translations = make(map[string]string)
		}
		a.Translations[lang] = text
	}
	return &a, rows.Err()
}

// WordsForAyah returns the dictionary words of an ayah ordered by
// position. The unknown-ayah case yields NotFound; an ayah that exists
// but has no mapping rows yields an empty slice.
func (s *Store) WordsForAyah(surah, ayah int) ([]WordAt, error) {
	rows, err := s.db.Query(`SELECT awm.word_position, wd.id, wd.quran_text,
			COALESCE(wd.ur_meaning, ''), COALESCE(wd.en_meaning, '')
		FROM ayah_word_mapping awm
		JOIN word_dictionary wd ON awm.word_id = wd.id
		WHERE awm.surah = ? AND awm.ayah = ?
		ORDER BY awm.word_position`, surah, ayah)
	if err != nil {
		return nil, errors.NewStorage("words for ayah", err)
	}
	defer rows.Close()

	var words []WordAt
	for rows.Next() {
		var w WordAt
		if err := rows.Scan(&w.Position, &w.Word.ID, &w.Word.Text, &w.Word.UrMeaning, &w.Word.EnMeaning); err != nil {
			return nil, errors.NewStorage("scan word", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("words for ayah", err)
	}
	if len(words) == 0 {
		ok, err := s.AyahExists(surah, ayah)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewNotFound("ayah", fmt.Sprintf("%d-%d", surah, ayah))
		}
	}
	return words, nil
}

// Word returns one dictionary entry by id.
func (s *Store) Word(id int64) (*Word, error) {
	var w Word
	err := s.db.QueryRow(`SELECT id, quran_text, COALESCE(ur_meaning, ''), COALESCE(en_meaning, '')
		FROM word_dictionary WHERE id = ?`, id).
		Scan(&w.ID, &w.Text, &w.UrMeaning, &w.EnMeaning)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("word", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.NewStorage("load word", err)
	}
	return &w, nil
}

// WordMeaning returns the per-language meanings of a word.
func (s *Store) WordMeaning(id int64) (map[string]string, error) {
	w, err := s.Word(id)
	if err != nil {
		return nil, err
	}
	meanings := make(map[string]string)
	if w.UrMeaning != "" {
		meanings["ur"] = w.UrMeaning
	}
	if w.EnMeaning != "" {
		meanings["en"] = w.EnMeaning
	}
	return meanings, nil
}

// SearchWords returns dictionary entries whose literal text contains
// the given fragment.
func (s *Store) SearchWords(fragment string) ([]Word, error) {
	rows, err := s.db.Query(`SELECT id, quran_text, COALESCE(ur_meaning, ''), COALESCE(en_meaning, '')
		FROM word_dictionary WHERE quran_text LIKE ? ORDER BY id LIMIT 100`,
		"%"+fragment+"%")
	if err != nil {
		return nil, errors.NewStorage("search words", err)
	}
	defer rows.Close()

	var words []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Text, &w.UrMeaning, &w.EnMeaning); err != nil {
			return nil, errors.NewStorage("scan word", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Querier is the query surface shared by *sql.DB and *sql.Tx. The
// existence checks accept it so a caller holding a transaction can
// validate references on the transaction's own connection instead of
// reaching back into the pool.
type Querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// AyahExists reports whether (surah, ayah) resolves in the store. The
// ayah text table is authoritative; if no text has been imported at all
// the word-position mapping is consulted instead, so annotation
// validation keeps working against mapping-only stores.
func (s *Store) AyahExists(surah, ayah int) (bool, error) {
	return AyahExistsIn(s.db, surah, ayah)
}

// AyahExistsIn is AyahExists against an arbitrary querier.
func AyahExistsIn(q Querier, surah, ayah int) (bool, error) {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM ayahs WHERE surah = ? AND ayah_number = ?`,
		surah, ayah).Scan(&n); err != nil {
		return false, errors.NewStorage("ayah exists", err)
	}
	if n > 0 {
		return true, nil
	}
	var total int
	if err := q.QueryRow(`SELECT COUNT(*) FROM ayahs`).Scan(&total); err != nil {
		return false, errors.NewStorage("ayah exists", err)
	}
	if total > 0 {
		return false, nil
	}
	if err := q.QueryRow(`SELECT COUNT(*) FROM ayah_word_mapping WHERE surah = ? AND ayah = ?`,
		surah, ayah).Scan(&n); err != nil {
		return false, errors.NewStorage("ayah exists", err)
	}
	return n > 0, nil
}

// SurahExistsIn reports whether a surah resolves, with the same
// mapping-only fallback as AyahExistsIn.
func SurahExistsIn(q Querier, number int) (bool, error) {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM surahs WHERE number = ?`, number).Scan(&n); err != nil {
		return false, errors.NewStorage("surah exists", err)
	}
	if n > 0 {
		return true, nil
	}
	var total int
	if err := q.QueryRow(`SELECT COUNT(*) FROM surahs`).Scan(&total); err != nil {
		return false, errors.NewStorage("surah exists", err)
	}
	if total > 0 {
		return false, nil
	}
	if err := q.QueryRow(`SELECT COUNT(*) FROM ayah_word_mapping WHERE surah = ?`, number).Scan(&n); err != nil {
		return false, errors.NewStorage("surah exists", err)
	}
	return n > 0, nil
}
