// Package backup implements per-user export and import of annotations
// as a portable JSON document, and an on-disk container that wraps the
// document with compression and an integrity checksum.
//
// A document carries no database ids and no user id: it is the owner's
// annotation state re-expressed in scripture coordinates, so it can be
// restored into a different store or a different account.
package backup

import (
	"github.com/hafizlab/alfurqan/core/annotation"
	"github.com/hafizlab/alfurqan/core/scripture"
)

// DocumentVersion is the current document schema version.
const DocumentVersion = 1

// Document is one user's exported annotation state.
type Document struct {
	Version     int               `json:"version"`
	ID          string            `json:"id"`
	ExportedAt  string            `json:"exported_at"`
	Username    string            `json:"username,omitempty"`
	Tafsir      []TafsirEntry     `json:"tafsir,omitempty"`
	Themes      []ThemeEntry      `json:"themes,omitempty"`
	Hifz        []HifzEntry       `json:"hifz,omitempty"`
	Recitations []RecitationEntry `json:"recitations,omitempty"`
	RootNotes   []RootNoteEntry   `json:"root_notes,omitempty"`
}

// TafsirEntry is one exported tafsir note.
type TafsirEntry struct {
	Surah      int                   `json:"surah"`
	Ayah       int                   `json:"ayah"`
	Notes      string                `json:"notes"`
	Visibility annotation.Visibility `json:"visibility"`
}

// ThemeEntry is one exported theme with its ayah set.
type ThemeEntry struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Visibility  annotation.Visibility `json:"visibility"`
	Ayahs       []scripture.Ref       `json:"ayahs"`
}

// HifzEntry is one exported memorization record.
type HifzEntry struct {
	Surah  int                   `json:"surah"`
	Ayah   int                   `json:"ayah"`
	Status annotation.HifzStatus `json:"status"`
}

// RecitationEntry is one exported recitation log line.
type RecitationEntry struct {
	Surah     int    `json:"surah"`
	AyahFrom  int    `json:"ayah_from"`
	AyahTo    int    `json:"ayah_to"`
	RecitedAt string `json:"recited_at"`
	Notes     string `json:"notes"`
}

// RootNoteEntry is one exported root word note.
type RootNoteEntry struct {
	RootWord    string                `json:"root_word"`
	Description string                `json:"description"`
	Visibility  annotation.Visibility `json:"visibility"`
}
