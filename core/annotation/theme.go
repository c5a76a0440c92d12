package annotation

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/core/scripture"
)

// ThemeResult is the outcome of a theme save. NeedsModeration is set
// when a lower role requested community visibility: the theme sits at
// CommunityPending and the caller is expected to submit a Theme
// contribution for it through the moderation engine.
type ThemeResult struct {
	Theme           *Theme
	NeedsModeration bool
	Diagnostics     []string
}

// SaveTheme creates or replaces the actor's theme with the given name.
// The refList accepts newline- or comma-separated "surah-ayah" tokens;
// unresolvable tokens are dropped with a diagnostic. An existing theme
// of the same (owner, name) has its description and its whole ayah-link
// set replaced in one transaction.
//
// Resulting visibility: Ulama+ self-certifies the requested community
// state; a lower role requesting a community state lands at
// CommunityPending; everything else stays Private.
func (s *Store) SaveTheme(actor access.Actor, name, description, refList string, requested Visibility) (*ThemeResult, error) {
	if !actor.Can(access.User) {
		return nil, errors.NewPermission("save theme", access.User.String())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidation("name", "theme name required")
	}
	if requested != "" && !requested.Valid() {
		return nil, errors.NewValidation("visibility", fmt.Sprintf("unknown visibility %q", requested))
	}

	refs, diags := scripture.ParseRefList(refList)
	resolved := refs[:0]
	for _, ref := range refs {
		ok, err := s.text.AyahExists(ref.Surah, ref.Ayah)
		if err != nil {
			return nil, err
		}
		if !ok {
			diags = append(diags, fmt.Sprintf("unknown ayah %s", ref))
			continue
		}
		resolved = append(resolved, ref)
	}

	visibility, needsModeration := resolveThemeVisibility(actor.Role, requested)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.NewStorage("begin", err)
	}
	defer tx.Rollback()

	var themeID int64
	err = tx.QueryRow(`SELECT id FROM themes WHERE user_id = ? AND name = ?`, actor.ID, name).Scan(&themeID)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.Exec(`INSERT INTO themes (user_id, name, description, visibility)
			VALUES (?, ?, ?, ?)`, actor.ID, name, description, string(visibility))
		if err != nil {
			return nil, errors.NewStorage("insert theme", err)
		}
		themeID, err = res.LastInsertId()
		if err != nil {
			return nil, errors.NewStorage("insert theme", err)
		}
	case err != nil:
		return nil, errors.NewStorage("load theme", err)
	default:
		if _, err := tx.Exec(`UPDATE themes SET description = ?, visibility = ?, updated_at = datetime('now')
			WHERE id = ?`, description, string(visibility), themeID); err != nil {
			return nil, errors.NewStorage("update theme", err)
		}
		if _, err := tx.Exec(`DELETE FROM theme_ayah_links WHERE theme_id = ?`, themeID); err != nil {
			return nil, errors.NewStorage("replace links", err)
		}
	}

	for _, ref := range resolved {
		if _, err := tx.Exec(`INSERT INTO theme_ayah_links (theme_id, surah, ayah) VALUES (?, ?, ?)`,
			themeID, ref.Surah, ref.Ayah); err != nil {
			return nil, errors.NewStorage("insert link", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorage("commit", err)
	}

	theme, err := s.themeByID(themeID)
	if err != nil {
		return nil, err
	}
	return &ThemeResult{Theme: theme, NeedsModeration: needsModeration, Diagnostics: diags}, nil
}

func resolveThemeVisibility(role access.Role, requested Visibility) (Visibility, bool) {
	communityRequested := requested == VisibilityCommunityApproved ||
		requested == VisibilityCommunityPending || requested == VisibilityUlamaPublic
	if access.HasPermission(role, access.Ulama) {
		if requested == VisibilityUlamaPublic {
			return VisibilityUlamaPublic, false
		}
		if communityRequested {
			return VisibilityCommunityApproved, false
		}
		return VisibilityPrivate, false
	}
	if communityRequested {
		return VisibilityCommunityPending, true
	}
	return VisibilityPrivate, false
}

// Theme returns one theme by id if the viewer may see it.
func (s *Store) Theme(viewer access.Actor, id int64) (*Theme, error) {
	theme, err := s.themeByID(id)
	if err != nil {
		return nil, err
	}
	if !VisibleTo(theme.Visibility, theme.UserID == viewer.ID, viewer.Role, IntentBrowse) &&
		!VisibleTo(theme.Visibility, theme.UserID == viewer.ID, viewer.Role, IntentReviewQueue) {
		return nil, errors.NewNotFound("theme", fmt.Sprintf("%d", id))
	}
	return theme, nil
}

// ThemeByName returns the viewer's own theme with the given name.
func (s *Store) ThemeByName(actor access.Actor, name string) (*Theme, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM themes WHERE user_id = ? AND name = ?`, actor.ID, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("theme", name)
	}
	if err != nil {
		return nil, errors.NewStorage("load theme", err)
	}
	return s.themeByID(id)
}

// ListThemes lists themes filtered through the visibility predicate for
// the given intent. IntentReviewQueue requires Ulama+.
func (s *Store) ListThemes(viewer access.Actor, intent QueryIntent) ([]Theme, error) {
	if intent == IntentReviewQueue && !viewer.Can(access.Ulama) {
		return nil, errors.NewPermission("list review queue", access.Ulama.String())
	}
	rows, err := s.db.Query(`SELECT id, user_id, name, description, visibility, created_at, updated_at
		FROM themes ORDER BY name`)
	if err != nil {
		return nil, errors.NewStorage("list themes", err)
	}
	defer rows.Close()

	var themes []Theme
	for rows.Next() {
		var t Theme
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Visibility, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.NewStorage("scan theme", err)
		}
		if VisibleTo(t.Visibility, t.UserID == viewer.ID, viewer.Role, intent) {
			themes = append(themes, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage("list themes", err)
	}
	for i := range themes {
		ayahs, err := s.themeAyahs(themes[i].ID)
		if err != nil {
			return nil, err
		}
		themes[i].Ayahs = ayahs
	}
	return themes, nil
}

// DeleteTheme removes a theme and its links. Owners may delete their
// own; Ulama+ may delete any.
func (s *Store) DeleteTheme(actor access.Actor, id int64) error {
	theme, err := s.themeByID(id)
	if err != nil {
		return err
	}
	if theme.UserID != actor.ID && !actor.Can(access.Ulama) {
		return errors.NewPermission("delete theme", access.Ulama.String())
	}
	if _, err := s.db.Exec(`DELETE FROM themes WHERE id = ?`, id); err != nil {
		return errors.NewStorage("delete theme", err)
	}
	return nil
}

// SetThemeVisibility writes a theme's visibility directly. Reserved for
// the moderation engine's apply-effects and backup restore; regular
// callers go through SaveTheme.
func (s *Store) SetThemeVisibility(id int64, v Visibility) error {
	res, err := s.db.Exec(`UPDATE themes SET visibility = ?, updated_at = datetime('now') WHERE id = ?`,
		string(v), id)
	if err != nil {
		return errors.NewStorage("set theme visibility", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("theme", fmt.Sprintf("%d", id))
	}
	return nil
}

func (s *Store) themeByID(id int64) (*Theme, error) {
	var t Theme
	err := s.db.QueryRow(`SELECT id, user_id, name, description, visibility, created_at, updated_at
		FROM themes WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Visibility, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("theme", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.NewStorage("load theme", err)
	}
	ayahs, err := s.themeAyahs(id)
	if err != nil {
		return nil, err
	}
	t.Ayahs = ayahs
	return &t, nil
}

func (s *Store) themeAyahs(themeID int64) ([]scripture.Ref, error) {
	rows, err := s.db.Query(`SELECT surah, ayah FROM theme_ayah_links
		WHERE theme_id = ? ORDER BY surah, ayah`, themeID)
	if err != nil {
		return nil, errors.NewStorage("theme ayahs", err)
	}
	defer rows.Close()
	var refs []scripture.Ref
	for rows.Next() {
		var ref scripture.Ref
		if err := rows.Scan(&ref.Surah, &ref.Ayah); err != nil {
			return nil, errors.NewStorage("scan link", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
