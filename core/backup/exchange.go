package backup

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/annotation"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/core/scripture"
	"github.com/hafizlab/alfurqan/internal/logging"
)

// Report is the outcome of an import attempt. Applied is false when any
// diagnostic was raised: the import is all-or-nothing and a failed run
// leaves the store untouched.
type Report struct {
	Applied     bool           `json:"applied"`
	Counts      map[string]int `json:"counts"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}

// Exchange exports and imports per-user annotation documents against
// one store.
type Exchange struct {
	annotations *annotation.Store
}

// NewExchange creates an Exchange over the annotation store. Scripture
// references are validated against the same database on import.
func NewExchange(annotations *annotation.Store) *Exchange {
	return &Exchange{annotations: annotations}
}

// Export collects the actor's complete annotation state into a
// document. Registered users and above.
func (e *Exchange) Export(actor access.Actor) (*Document, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("export backup", access.User.String())
	}
	db := e.annotations.DB()

	doc := &Document{Version: DocumentVersion, ID: uuid.NewString()}
	if err := db.QueryRow(`SELECT datetime('now')`).Scan(&doc.ExportedAt); err != nil {
		return nil, errors.NewStorage("export", err)
	}
	// Informational only; Import restores into the importing actor's
	// account regardless of who exported.
	err := db.QueryRow(`SELECT username FROM users WHERE id = ?`, actor.ID).Scan(&doc.Username)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.NewStorage("export", err)
	}

	rows, err := db.Query(`SELECT surah, ayah, notes, visibility FROM user_tafsir
		WHERE user_id = ? ORDER BY surah, ayah`, actor.ID)
	if err != nil {
		return nil, errors.NewStorage("export tafsir", err)
	}
	for rows.Next() {
		var t TafsirEntry
		if err := rows.Scan(&t.Surah, &t.Ayah, &t.Notes, &t.Visibility); err != nil {
			rows.Close()
			return nil, errors.NewStorage("export tafsir", err)
		}
		doc.Tafsir = append(doc.Tafsir, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("export tafsir", err)
	}

	themes, err := e.annotations.ListThemes(actor, annotation.IntentOwn)
	if err != nil {
		return nil, err
	}
	for _, t := range themes {
		doc.Themes = append(doc.Themes, ThemeEntry{
			Name:        t.Name,
			Description: t.Description,
			Visibility:  t.Visibility,
			Ayahs:       t.Ayahs,
		})
	}

	hifz, err := e.annotations.ListHifz(actor)
	if err != nil {
		return nil, err
	}
	for _, h := range hifz {
		doc.Hifz = append(doc.Hifz, HifzEntry{Surah: h.Surah, Ayah: h.Ayah, Status: h.Status})
	}

	recitations, err := e.annotations.ListRecitations(actor)
	if err != nil {
		return nil, err
	}
	for _, r := range recitations {
		doc.Recitations = append(doc.Recitations, RecitationEntry{
			Surah: r.Surah, AyahFrom: r.AyahFrom, AyahTo: r.AyahTo,
			RecitedAt: r.RecitedAt, Notes: r.Notes,
		})
	}

	notes, err := e.annotations.ListRootNotes(actor, annotation.IntentOwn)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		doc.RootNotes = append(doc.RootNotes, RootNoteEntry{
			RootWord: n.RootWord, Description: n.Description, Visibility: n.Visibility,
		})
	}

	logging.BackupEvent("exported", actor.ID, 0, "document_id", doc.ID)
	return doc, nil
}

// Import restores a document into the actor's account inside one
// transaction. Every problem — an unresolvable ayah, a theme name the
// actor already owns, an unknown status — becomes a diagnostic, the
// whole run keeps going to collect them all, and any diagnostic rolls
// the transaction back. The store is modified only when the report
// comes back Applied.
//
// Community-visible entries are demoted to CommunityPending on import
// unless the actor is Ulama+: a backup document is not a moderation
// bypass.
func (e *Exchange) Import(actor access.Actor, doc *Document) (*Report, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("import backup", access.User.String())
	}
	if doc == nil {
		return nil, errors.NewValidation("document", "document required")
	}
	if doc.Version != DocumentVersion {
		return nil, errors.NewValidation("version",
			fmt.Sprintf("unsupported document version %d", doc.Version))
	}

	report := &Report{Counts: make(map[string]int)}
	db := e.annotations.DB()

	tx, err := db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	diag := func(format string, args ...any) {
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf(format, args...))
	}

	for _, t := range doc.Tafsir {
		known, err := scripture.AyahExistsIn(tx, t.Surah, t.Ayah)
		if err != nil {
			return nil, err
		}
		if !known {
			diag("tafsir: unknown ayah %d-%d", t.Surah, t.Ayah)
			continue
		}
		v := e.demote(actor, t.Visibility)
		if _, err := tx.Exec(`INSERT INTO user_tafsir (user_id, surah, ayah, notes, visibility)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, surah, ayah) DO UPDATE SET
				notes = excluded.notes,
				visibility = excluded.visibility,
				updated_at = datetime('now')`,
			actor.ID, t.Surah, t.Ayah, t.Notes, string(v)); err != nil {
			return nil, errors.NewStorage("import tafsir", err)
		}
		report.Counts["tafsir"]++
	}

	for _, t := range doc.Themes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			diag("theme: empty name")
			continue
		}
		var existing int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM themes WHERE user_id = ? AND name = ?`,
			actor.ID, name).Scan(&existing); err != nil {
			return nil, errors.NewStorage("import theme", err)
		}
		if existing > 0 {
			diag("theme: name %q already exists", name)
			continue
		}
		refs := t.Ayahs
		ok := true
		for _, ref := range refs {
			known, err := scripture.AyahExistsIn(tx, ref.Surah, ref.Ayah)
			if err != nil {
				return nil, err
			}
			if !known {
				diag("theme %q: unknown ayah %s", name, ref)
				ok = false
			}
		}
		if !ok {
			continue
		}
		v := e.demote(actor, t.Visibility)
		res, err := tx.Exec(`INSERT INTO themes (user_id, name, description, visibility)
			VALUES (?, ?, ?, ?)`, actor.ID, name, t.Description, string(v))
		if err != nil {
			return nil, errors.NewStorage("import theme", err)
		}
		themeID, err := res.LastInsertId()
		if err != nil {
			return nil, errors.NewStorage("import theme", err)
		}
		for _, ref := range refs {
			if _, err := tx.Exec(`INSERT INTO theme_ayah_links (theme_id, surah, ayah)
				VALUES (?, ?, ?)`, themeID, ref.Surah, ref.Ayah); err != nil {
				return nil, errors.NewStorage("import theme link", err)
			}
		}
		report.Counts["themes"]++
	}

	for _, h := range doc.Hifz {
		if !h.Status.Valid() {
			diag("hifz: unknown status %q at %d-%d", h.Status, h.Surah, h.Ayah)
			continue
		}
		known, err := scripture.AyahExistsIn(tx, h.Surah, h.Ayah)
		if err != nil {
			return nil, err
		}
		if !known {
			diag("hifz: unknown ayah %d-%d", h.Surah, h.Ayah)
			continue
		}
		if _, err := tx.Exec(`INSERT INTO hifz_tracking (user_id, surah, ayah, status)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, surah, ayah) DO UPDATE SET
				status = excluded.status,
				updated_at = datetime('now')`,
			actor.ID, h.Surah, h.Ayah, string(h.Status)); err != nil {
			return nil, errors.NewStorage("import hifz", err)
		}
		report.Counts["hifz"]++
	}

	for _, r := range doc.Recitations {
		if r.AyahFrom < 1 || r.AyahTo < 1 || r.AyahFrom > r.AyahTo {
			diag("recitation: bad ayah range %d-%d in surah %d", r.AyahFrom, r.AyahTo, r.Surah)
			continue
		}
		known, err := scripture.SurahExistsIn(tx, r.Surah)
		if err != nil {
			return nil, err
		}
		if !known {
			diag("recitation: unknown surah %d", r.Surah)
			continue
		}
		recitedAt := r.RecitedAt
		if recitedAt == "" {
			recitedAt = "now"
		}
		if _, err := tx.Exec(`INSERT INTO recitation_logs (user_id, surah, ayah_from, ayah_to, recited_at, notes)
			VALUES (?, ?, ?, ?, datetime(?), ?)`,
			actor.ID, r.Surah, r.AyahFrom, r.AyahTo, recitedAt, r.Notes); err != nil {
			return nil, errors.NewStorage("import recitation", err)
		}
		report.Counts["recitations"]++
	}

	for _, n := range doc.RootNotes {
		root := strings.TrimSpace(n.RootWord)
		if root == "" {
			diag("root note: empty root word")
			continue
		}
		v := e.demote(actor, n.Visibility)
		if _, err := tx.Exec(`INSERT INTO root_notes (user_id, root_word, description, visibility)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, root_word) DO UPDATE SET
				description = excluded.description,
				visibility = excluded.visibility,
				updated_at = datetime('now')`,
			actor.ID, root, n.Description, string(v)); err != nil {
			return nil, errors.NewStorage("import root note", err)
		}
		report.Counts["root_notes"]++
	}

	if len(report.Diagnostics) > 0 {
		logging.BackupEvent("import_rejected", actor.ID, len(report.Diagnostics), "document_id", doc.ID)
		return report, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}
	report.Applied = true
	logging.BackupEvent("imported", actor.ID, 0, "document_id", doc.ID)
	return report, nil
}

// demote maps community-visible states to CommunityPending for actors
// below Ulama. Private entries pass through for everyone.
func (e *Exchange) demote(actor access.Actor, v annotation.Visibility) annotation.Visibility {
	if !v.Valid() {
		return annotation.VisibilityPrivate
	}
	if v.Approved() && !actor.Can(access.Ulama) {
		return annotation.VisibilityCommunityPending
	}
	return v
}
