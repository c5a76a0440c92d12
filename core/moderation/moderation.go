// Package moderation governs the Pending → Approved/Rejected lifecycle
// of community contributions.
//
// The state machine has one non-terminal state: a contribution is
// created Pending and resolved exactly once by an Ulama+ actor. Both
// terminal states stay terminal; resolving an already-resolved
// contribution reports AlreadyResolved and mutates nothing.
//
// "Ulama+ self-certifies, others go through a Contribution" is a
// strategy dispatched on the contribution type: each type has an
// apply-effect that publishes the target entity, and the same effect
// runs either directly (self-certification) or inside the Approve
// transaction.
package moderation

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/annotation"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/internal/logging"
)

// Type identifies what a contribution proposes to publish.
type Type string

const (
	// TypeWordMeaning proposes a dictionary meaning for a word.
	TypeWordMeaning Type = "WordMeaning"
	// TypeTafsir proposes publishing a tafsir entry.
	TypeTafsir Type = "Tafsir"
	// TypeTheme proposes community visibility for a theme.
	TypeTheme Type = "Theme"
)

// Valid reports whether t is a defined contribution type.
func (t Type) Valid() bool {
	_, ok := applyEffects[t]
	return ok
}

// Status is the lifecycle state of a contribution.
type Status string

const (
	// StatusPending awaits review.
	StatusPending Status = "Pending"
	// StatusApproved is terminal; the apply-effect has run.
	StatusApproved Status = "Approved"
	// StatusRejected is terminal; the target entity was not touched.
	StatusRejected Status = "Rejected"
)

// Contribution is one community submission awaiting (or past) review.
type Contribution struct {
	ID         string `json:"id"`
	UserID     int64  `json:"user_id"`
	Type       Type   `json:"type"`
	RelatedID  int64  `json:"related_id"`
	Content    string `json:"content"`
	Status     Status `json:"status"`
	CreatedAt  string `json:"created_at"`
	ResolvedAt string `json:"resolved_at,omitempty"`
	ResolvedBy int64  `json:"resolved_by,omitempty"`
}

// SubmitResult reports what Submit did: either a Pending contribution
// was created, or an Ulama+ actor self-certified and the effect was
// applied directly with no envelope.
type SubmitResult struct {
	Contribution  *Contribution `json:"contribution,omitempty"`
	SelfCertified bool          `json:"self_certified"`
}

// Engine runs the moderation state machine over the annotation store's
// database.
type Engine struct {
	db *sql.DB
}

// NewEngine creates an Engine. It shares the database of the annotation
// and scripture stores so apply-effects join the Approve transaction.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// applyEffect publishes the entity a contribution refers to. It runs
// inside the Approve transaction; a failure rolls the whole resolution
// back and the contribution stays Pending.
type applyEffect func(tx *sql.Tx, c *Contribution) error

var applyEffects = map[Type]applyEffect{
	TypeTheme:       applyTheme,
	TypeWordMeaning: applyWordMeaning,
	TypeTafsir:      applyTafsir,
}

func applyTheme(tx *sql.Tx, c *Contribution) error {
	res, err := tx.Exec(`UPDATE themes SET visibility = ?, updated_at = datetime('now') WHERE id = ?`,
		string(annotation.VisibilityCommunityApproved), c.RelatedID)
	if err != nil {
		return errors.NewStorage("approve theme", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("theme", fmt.Sprintf("%d", c.RelatedID))
	}
	return nil
}

// applyWordMeaning merges the proposed meaning into the dictionary
// entry. Content is "ur: ..." or "en: ..."; a bare string is treated as
// an English meaning. Last writer wins, matching dictionary re-imports.
func applyWordMeaning(tx *sql.Tx, c *Contribution) error {
	column := "en_meaning"
	meaning := strings.TrimSpace(c.Content)
	if rest, ok := strings.CutPrefix(meaning, "ur:"); ok {
		column = "ur_meaning"
		meaning = strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(meaning, "en:"); ok {
		meaning = strings.TrimSpace(rest)
	}
	if meaning == "" {
		return errors.NewValidation("content", "empty word meaning")
	}
	res, err := tx.Exec(`UPDATE word_dictionary SET `+column+` = ? WHERE id = ?`, meaning, c.RelatedID)
	if err != nil {
		return errors.NewStorage("merge word meaning", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("word", fmt.Sprintf("%d", c.RelatedID))
	}
	return nil
}

func applyTafsir(tx *sql.Tx, c *Contribution) error {
	res, err := tx.Exec(`UPDATE user_tafsir SET visibility = ?, updated_at = datetime('now') WHERE id = ?`,
		string(annotation.VisibilityCommunityApproved), c.RelatedID)
	if err != nil {
		return errors.NewStorage("publish tafsir", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("tafsir", fmt.Sprintf("%d", c.RelatedID))
	}
	return nil
}

// Submit routes a proposed publication. Ulama+ actors self-certify: the
// apply-effect runs immediately and no Contribution row is created.
// Lower roles get a Pending contribution for later review.
func (e *Engine) Submit(actor access.Actor, typ Type, relatedID int64, content string) (*SubmitResult, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("submit contribution", access.User.String())
	}
	if !typ.Valid() {
		return nil, errors.NewValidation("type", fmt.Sprintf("unknown contribution type %q", typ))
	}

	if actor.Can(access.Ulama) {
		tx, err := e.db.Begin()
		if err != nil {
			return nil, errors.NewStorage("begin", err)
		}
		defer tx.Rollback()
		c := &Contribution{Type: typ, RelatedID: relatedID, Content: content, UserID: actor.ID}
		if err := applyEffects[typ](tx, c); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, errors.NewStorage("commit", err)
		}
		logging.ModerationEvent("self_certified", "", actor.ID, "type", string(typ), "related_id", relatedID)
		return &SubmitResult{SelfCertified: true}, nil
	}

	id := uuid.NewString()
	_, err := e.db.Exec(`INSERT INTO contributions (id, user_id, type, related_id, content)
		VALUES (?, ?, ?, ?, ?)`, id, actor.ID, string(typ), relatedID, content)
	if err != nil {
		return nil, errors.NewStorage("insert contribution", err)
	}
	c, err := e.load(id)
	if err != nil {
		return nil, err
	}
	logging.ModerationEvent("submitted", id, actor.ID, "type", string(typ))
	return &SubmitResult{Contribution: c}, nil
}

// Approve resolves a Pending contribution: within one transaction the
// type-specific apply-effect runs and the status flips to Approved. A
// contribution that is no longer Pending reports AlreadyResolved and is
// not mutated, so repeat calls are idempotent-safe.
func (e *Engine) Approve(actor access.Actor, id string) (*Contribution, error) {
	return e.resolve(actor, id, StatusApproved)
}

// Reject resolves a Pending contribution to Rejected. The referenced
// entity is never mutated.
func (e *Engine) Reject(actor access.Actor, id string) (*Contribution, error) {
	return e.resolve(actor, id, StatusRejected)
}

func (e *Engine) resolve(actor access.Actor, id string, to Status) (*Contribution, error) {
	op := "approve contribution"
	if to == StatusRejected {
		op = "reject contribution"
	}
	if !actor.Can(access.Ulama) {
		return nil, errors.NewPermission(op, access.Ulama.String())
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	c, err := loadTx(tx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, errors.NewAlreadyResolved(id, string(c.Status))
	}

	if to == StatusApproved {
		if err := applyEffects[c.Type](tx, c); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(`UPDATE contributions
		SET status = ?, resolved_at = datetime('now'), resolved_by = ?
		WHERE id = ?`, string(to), actor.ID, id); err != nil {
		return nil, errors.NewStorage("resolve contribution", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}

	logging.ModerationEvent(strings.ToLower(string(to)), id, actor.ID, "type", string(c.Type))
	return e.load(id)
}

// ListPending returns the review queue, oldest first. Ulama+ only.
func (e *Engine) ListPending(actor access.Actor) ([]Contribution, error) {
	if !actor.Can(access.Ulama) {
		return nil, errors.NewPermission("list review queue", access.Ulama.String())
	}
	rows, err := e.db.Query(`SELECT id, user_id, type, related_id, content, status,
			created_at, COALESCE(resolved_at, ''), COALESCE(resolved_by, 0)
		FROM contributions WHERE status = ? ORDER BY created_at, id`, string(StatusPending))
	if err != nil {
		return nil, errors.NewStorage("list pending", err)
	}
	defer rows.Close()

	var pending []Contribution
	for rows.Next() {
		var c Contribution
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.RelatedID, &c.Content, &c.Status,
			&c.CreatedAt, &c.ResolvedAt, &c.ResolvedBy); err != nil {
			return nil, errors.NewStorage("scan contribution", err)
		}
		pending = append(pending, c)
	}
	return pending, rows.Err()
}

// Contribution returns one contribution, visible to its submitter and
// to Ulama+.
func (e *Engine) Contribution(actor access.Actor, id string) (*Contribution, error) {
	c, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.ID && !actor.Can(access.Ulama) {
		return nil, errors.NewNotFound("contribution", id)
	}
	return c, nil
}

func (e *Engine) load(id string) (*Contribution, error) {
	return scanContribution(e.db.QueryRow(`SELECT id, user_id, type, related_id, content, status,
			created_at, COALESCE(resolved_at, ''), COALESCE(resolved_by, 0)
		FROM contributions WHERE id = ?`, id), id)
}

func loadTx(tx *sql.Tx, id string) (*Contribution, error) {
	return scanContribution(tx.QueryRow(`SELECT id, user_id, type, related_id, content, status,
			created_at, COALESCE(resolved_at, ''), COALESCE(resolved_by, 0)
		FROM contributions WHERE id = ?`, id), id)
}

func scanContribution(row *sql.Row, id string) (*Contribution, error) {
	var c Contribution
	err := row.Scan(&c.ID, &c.UserID, &c.Type, &c.RelatedID, &c.Content, &c.Status,
		&c.CreatedAt, &c.ResolvedAt, &c.ResolvedBy)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("contribution", id)
	}
	if err != nil {
		return nil, errors.NewStorage("load contribution", err)
	}
	return &c, nil
}
