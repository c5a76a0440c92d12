package annotation

import (
	"fmt"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
)

// LogRecitation appends one recitation entry. The ayah range must
// satisfy ayahFrom <= ayahTo and the surah must exist.
func (s *Store) LogRecitation(actor access.Actor, surah, ayahFrom, ayahTo int, notes string) (*RecitationEntry, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("log recitation", access.User.String())
	}
	if ayahFrom < 1 || ayahTo < 1 {
		return nil, errors.NewValidation("ayah_range", "ayah numbers start at 1")
	}
	if ayahFrom > ayahTo {
		return nil, errors.NewValidation("ayah_range",
			fmt.Sprintf("ayah_from %d is after ayah_to %d", ayahFrom, ayahTo))
	}
	if _, err := s.text.Surah(surah); err != nil {
		return nil, err
	}

	res, err := s.db.Exec(`INSERT INTO recitation_logs (user_id, surah, ayah_from, ayah_to, notes)
		VALUES (?, ?, ?, ?, ?)`, actor.ID, surah, ayahFrom, ayahTo, notes)
	if err != nil {
		return nil, errors.NewStorage("log recitation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewStorage("log recitation", err)
	}
	return s.recitationByID(id)
}

// ListRecitations returns the actor's log, most recent first.
func (s *Store) ListRecitations(actor access.Actor) ([]RecitationEntry, error) {
	rows, err := s.db.Query(`SELECT id, user_id, surah, ayah_from, ayah_to, recited_at, notes
		FROM recitation_logs WHERE user_id = ? ORDER BY id DESC`, actor.ID)
	if err != nil {
		return nil, errors.NewStorage("list recitations", err)
	}
	defer rows.Close()

	var entries []RecitationEntry
	for rows.Next() {
		var e RecitationEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Surah, &e.AyahFrom, &e.AyahTo, &e.RecitedAt, &e.Notes); err != nil {
			return nil, errors.NewStorage("scan recitation", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteRecitation removes one entry. It succeeds only when the entry
// belongs to the actor; anything else reads as not found.
func (s *Store) DeleteRecitation(actor access.Actor, entryID int64) error {
	if !actor.Can(access.User) {
		return errors.NewPermission("delete recitation", access.User.String())
	}
	res, err := s.db.Exec(`DELETE FROM recitation_logs WHERE id = ? AND user_id = ?`, entryID, actor.ID)
	if err != nil {
		return errors.NewStorage("delete recitation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("recitation entry", fmt.Sprintf("%d", entryID))
	}
	return nil
}

func (s *Store) recitationByID(id int64) (*RecitationEntry, error) {
	var e RecitationEntry
	err := s.db.QueryRow(`SELECT id, user_id, surah, ayah_from, ayah_to, recited_at, notes
		FROM recitation_logs WHERE id = ?`, id).
		Scan(&e.ID, &e.UserID, &e.Surah, &e.AyahFrom, &e.AyahTo, &e.RecitedAt, &e.Notes)
	if err != nil {
		return nil, errors.NewStorage("load recitation", err)
	}
	return &e, nil
}
