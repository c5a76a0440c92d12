package annotation

import (
	"database/sql"
	"strings"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
)

// SaveRootNote upserts the actor's note on an Arabic root word, keyed
// by (owner, root_word).
func (s *Store) SaveRootNote(actor access.Actor, rootWord, description string) (*RootNote, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("save root note", access.User.String())
	}
	rootWord = strings.TrimSpace(rootWord)
	if rootWord == "" {
		return nil, errors.NewValidation("root_word", "root word required")
	}

	_, err := s.db.Exec(`INSERT INTO root_notes (user_id, root_word, description)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, root_word) DO UPDATE SET
			description = excluded.description,
			updated_at = datetime('now')`,
		actor.ID, rootWord, description)
	if err != nil {
		return nil, errors.NewStorage("save root note", err)
	}
	return s.RootNote(actor, rootWord)
}

// RootNote returns the actor's own note for one root word.
func (s *Store) RootNote(actor access.Actor, rootWord string) (*RootNote, error) {
	var n RootNote
	err := s.db.QueryRow(`SELECT id, user_id, root_word, description, visibility, updated_at
		FROM root_notes WHERE user_id = ? AND root_word = ?`, actor.ID, rootWord).
		Scan(&n.ID, &n.UserID, &n.RootWord, &n.Description, &n.Visibility, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("root note", rootWord)
	}
	if err != nil {
		return nil, errors.NewStorage("load root note", err)
	}
	return &n, nil
}

// ListRootNotes lists root notes filtered through the visibility
// predicate for the given intent.
func (s *Store) ListRootNotes(viewer access.Actor, intent QueryIntent) ([]RootNote, error) {
	if intent == IntentReviewQueue && !viewer.Can(access.Ulama) {
		return nil, errors.NewPermission("list review queue", access.Ulama.String())
	}
	rows, err := s.db.Query(`SELECT id, user_id, root_word, description, visibility, updated_at
		FROM root_notes ORDER BY root_word`)
	if err != nil {
		return nil, errors.NewStorage("list root notes", err)
	}
	defer rows.Close()

	var notes []RootNote
	for rows.Next() {
		var n RootNote
		if err := rows.Scan(&n.ID, &n.UserID, &n.RootWord, &n.Description, &n.Visibility, &n.UpdatedAt); err != nil {
			return nil, errors.NewStorage("scan root note", err)
		}
		if VisibleTo(n.Visibility, n.UserID == viewer.ID, viewer.Role, intent) {
			notes = append(notes, n)
		}
	}
	return notes, rows.Err()
}
