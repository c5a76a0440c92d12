package annotation

import (
	"database/sql"
	"fmt"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
)

// UpdateHifz upserts the actor's memorization status for one ayah.
// Transitions are unconstrained: the new status overwrites the old with
// no history. The timestamp refreshes only on transitions into
// Memorized or Revising unless the store policy says otherwise.
func (s *Store) UpdateHifz(actor access.Actor, surah, ayah int, status HifzStatus) (*HifzRecord, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("update hifz", access.User.String())
	}
	if !status.Valid() {
		return nil, errors.NewValidation("status", fmt.Sprintf("unknown hifz status %q", status))
	}
	ok, err := s.text.AyahExists(surah, ayah)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("ayah", fmt.Sprintf("%d-%d", surah, ayah))
	}

	touch := s.policy.TouchHifzOnEveryChange ||
		status == HifzMemorized || status == HifzRevising
	_, err = s.db.Exec(`INSERT INTO hifz_tracking (user_id, surah, ayah, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, surah, ayah) DO UPDATE SET
			status = excluded.status,
			updated_at = CASE WHEN ? THEN datetime('now') ELSE hifz_tracking.updated_at END`,
		actor.ID, surah, ayah, string(status), touch)
	if err != nil {
		return nil, errors.NewStorage("update hifz", err)
	}
	return s.Hifz(actor, surah, ayah)
}

// Hifz returns the actor's record for one ayah.
func (s *Store) Hifz(actor access.Actor, surah, ayah int) (*HifzRecord, error) {
	var h HifzRecord
	err := s.db.QueryRow(`SELECT id, user_id, surah, ayah, status, updated_at
		FROM hifz_tracking WHERE user_id = ? AND surah = ? AND ayah = ?`,
		actor.ID, surah, ayah).
		Scan(&h.ID, &h.UserID, &h.Surah, &h.Ayah, &h.Status, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("hifz record", fmt.Sprintf("%d-%d", surah, ayah))
	}
	if err != nil {
		return nil, errors.NewStorage("load hifz", err)
	}
	return &h, nil
}

// ListHifz returns all of the actor's records ordered by (surah, ayah).
func (s *Store) ListHifz(actor access.Actor) ([]HifzRecord, error) {
	rows, err := s.db.Query(`SELECT id, user_id, surah, ayah, status, updated_at
		FROM hifz_tracking WHERE user_id = ? ORDER BY surah, ayah`, actor.ID)
	if err != nil {
		return nil, errors.NewStorage("list hifz", err)
	}
	defer rows.Close()

	var records []HifzRecord
	for rows.Next() {
		var h HifzRecord
		if err := rows.Scan(&h.ID, &h.UserID, &h.Surah, &h.Ayah, &h.Status, &h.UpdatedAt); err != nil {
			return nil, errors.NewStorage("scan hifz", err)
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

// HifzSummary returns the actor's per-status ayah counts.
func (s *Store) HifzSummary(actor access.Actor) (map[HifzStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM hifz_tracking
		WHERE user_id = ? GROUP BY status`, actor.ID)
	if err != nil {
		return nil, errors.NewStorage("hifz summary", err)
	}
	defer rows.Close()

	summary := make(map[HifzStatus]int)
	for rows.Next() {
		var status HifzStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.NewStorage("scan summary", err)
		}
		summary[status] = n
	}
	return summary, rows.Err()
}
