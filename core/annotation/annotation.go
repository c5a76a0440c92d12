// Package annotation implements the per-user annotation store: personal
// tafsir, themes with ayah links, hifz tracking, recitation logs and
// root notes.
//
// Every mutating operation takes an explicit Actor and checks its
// minimum required role before any side effect. Community visibility
// transitions happen only through the moderation engine or through
// Ulama+ self-certification; nothing in this package flips content to
// an approved state on behalf of a lower role.
package annotation

import (
	"database/sql"

	"github.com/hafizlab/alfurqan/core/scripture"
)

// Visibility is the publication state of community-facing content.
type Visibility string

const (
	// VisibilityPrivate content is visible to its owner only.
	VisibilityPrivate Visibility = "Private"
	// VisibilityCommunityPending content awaits Ulama review.
	VisibilityCommunityPending Visibility = "CommunityPending"
	// VisibilityCommunityApproved content is visible to the community.
	VisibilityCommunityApproved Visibility = "CommunityApproved"
	// VisibilityUlamaPublic content is published under Ulama authority.
	VisibilityUlamaPublic Visibility = "UlamaPublic"
)

// Valid reports whether v is a defined visibility state.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityCommunityPending, VisibilityCommunityApproved, VisibilityUlamaPublic:
		return true
	}
	return false
}

// Approved reports whether v is a community-visible state.
func (v Visibility) Approved() bool {
	return v == VisibilityCommunityApproved || v == VisibilityUlamaPublic
}

// HifzStatus is the memorization state of one ayah for one user.
type HifzStatus string

const (
	// HifzNotStarted marks an ayah not yet begun.
	HifzNotStarted HifzStatus = "NotStarted"
	// HifzMemorizing marks an ayah in progress.
	HifzMemorizing HifzStatus = "Memorizing"
	// HifzMemorized marks a completed ayah.
	HifzMemorized HifzStatus = "Memorized"
	// HifzRevising marks a memorized ayah under review.
	HifzRevising HifzStatus = "Revising"
)

// Valid reports whether s is a defined hifz status.
func (s HifzStatus) Valid() bool {
	switch s {
	case HifzNotStarted, HifzMemorizing, HifzMemorized, HifzRevising:
		return true
	}
	return false
}

// Tafsir is one user's commentary on one ayah. Private by construction;
// it becomes visible only through an approved Tafsir contribution.
type Tafsir struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Surah      int        `json:"surah"`
	Ayah       int        `json:"ayah"`
	Notes      string     `json:"notes"`
	Visibility Visibility `json:"visibility"`
	UpdatedAt  string     `json:"updated_at"`
}

// Theme is a named, user-curated set of ayahs grouped by topic.
type Theme struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Visibility  Visibility      `json:"visibility"`
	Ayahs       []scripture.Ref `json:"ayahs"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// HifzRecord is the memorization state of one (user, surah, ayah).
type HifzRecord struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Surah     int        `json:"surah"`
	Ayah      int        `json:"ayah"`
	Status    HifzStatus `json:"status"`
	UpdatedAt string     `json:"updated_at"`
}

// RecitationEntry is one append-only recitation log line.
type RecitationEntry struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Surah     int    `json:"surah"`
	AyahFrom  int    `json:"ayah_from"`
	AyahTo    int    `json:"ayah_to"`
	RecitedAt string `json:"recited_at"`
	Notes     string `json:"notes"`
}

// RootNote is a user's note on an Arabic root word.
type RootNote struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	RootWord    string     `json:"root_word"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	UpdatedAt   string     `json:"updated_at"`
}

// Policy carries the store's configurable behavior knobs.
type Policy struct {
	// TouchHifzOnEveryChange refreshes the hifz timestamp on every
	// status write. When false (default), the timestamp refreshes only
	// on transitions into Memorized or Revising.
	TouchHifzOnEveryChange bool
}

// Store provides access to per-user annotations. It reads the scripture
// store to validate ayah references before accepting writes.
type Store struct {
	db     *sql.DB
	text   *scripture.Store
	policy Policy
}

// New creates a Store with default policy.
func New(db *sql.DB, text *scripture.Store) *Store {
	return NewWithPolicy(db, text, Policy{})
}

// NewWithPolicy creates a Store with an explicit policy.
func NewWithPolicy(db *sql.DB, text *scripture.Store, policy Policy) *Store {
	return &Store{db: db, text: text, policy: policy}
}

// DB exposes the underlying handle for engines layered on this store.
func (s *Store) DB() *sql.DB {
	return s.db
}
