package annotation

import (
	"database/sql"
	"fmt"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
)

// SaveTafsir upserts the actor's personal tafsir for one ayah. Personal
// tafsir never enters moderation; the write keeps whatever visibility
// the row already has (a previously published tafsir stays published
// when its owner edits it).
func (s *Store) SaveTafsir(actor access.Actor, surah, ayah int, notes string) (*Tafsir, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("save tafsir", access.User.String())
	}
	ok, err := s.text.AyahExists(surah, ayah)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("ayah", fmt.Sprintf("%d-%d", surah, ayah))
	}

	_, err = s.db.Exec(`INSERT INTO user_tafsir (user_id, surah, ayah, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, surah, ayah) DO UPDATE SET
			notes = excluded.notes,
			updated_at = datetime('now')`,
		actor.ID, surah, ayah, notes)
	if err != nil {
		return nil, errors.NewStorage("save tafsir", err)
	}
	return s.Tafsir(actor, surah, ayah)
}

// Tafsir returns the actor's own tafsir for one ayah.
func (s *Store) Tafsir(actor access.Actor, surah, ayah int) (*Tafsir, error) {
	var t Tafsir
	err := s.db.QueryRow(`SELECT id, user_id, surah, ayah, notes, visibility, updated_at
		FROM user_tafsir WHERE user_id = ? AND surah = ? AND ayah = ?`,
		actor.ID, surah, ayah).
		Scan(&t.ID, &t.UserID, &t.Surah, &t.Ayah, &t.Notes, &t.Visibility, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("tafsir", fmt.Sprintf("%d-%d", surah, ayah))
	}
	if err != nil {
		return nil, errors.NewStorage("load tafsir", err)
	}
	return &t, nil
}

// ListTafsir returns all of the actor's tafsir ordered by (surah, ayah).
func (s *Store) ListTafsir(actor access.Actor) ([]Tafsir, error) {
	rows, err := s.db.Query(`SELECT id, user_id, surah, ayah, notes, visibility, updated_at
		FROM user_tafsir WHERE user_id = ? ORDER BY surah, ayah`, actor.ID)
	if err != nil {
		return nil, errors.NewStorage("list tafsir", err)
	}
	defer rows.Close()
	return scanTafsirRows(rows)
}

// ListAyahTafsir returns the tafsir on one ayah that the viewer may
// see: their own plus published commentary from others.
func (s *Store) ListAyahTafsir(viewer access.Actor, surah, ayah int) ([]Tafsir, error) {
	rows, err := s.db.Query(`SELECT id, user_id, surah, ayah, notes, visibility, updated_at
		FROM user_tafsir WHERE surah = ? AND ayah = ? ORDER BY user_id`, surah, ayah)
	if err != nil {
		return nil, errors.NewStorage("list ayah tafsir", err)
	}
	defer rows.Close()
	all, err := scanTafsirRows(rows)
	if err != nil {
		return nil, err
	}
	var visible []Tafsir
	for _, t := range all {
		if VisibleTo(t.Visibility, t.UserID == viewer.ID, viewer.Role, IntentBrowse) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func scanTafsirRows(rows *sql.Rows) ([]Tafsir, error) {
	var out []Tafsir
	for rows.Next() {
		var t Tafsir
		if err := rows.Scan(&t.ID, &t.UserID, &t.Surah, &t.Ayah, &t.Notes, &t.Visibility, &t.UpdatedAt); err != nil {
			return nil, errors.NewStorage("scan tafsir", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
