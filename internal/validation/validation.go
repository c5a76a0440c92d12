// Package validation provides input validation for the import surface:
// size limits and path checks for the files the CLI feeds into the
// bulk importers.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Limits for import files.
const (
	// MaxImportFileSize is the maximum allowed import file size (64 MB).
	// The full word-by-word corpus is under 10 MB; anything larger is a
	// wrong file.
	MaxImportFileSize = 64 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrPathTooLong  = errors.New("path too long")
	ErrNotAFile     = errors.New("not a regular file")
	ErrFileTooLarge = errors.New("file too large")
)

// ValidateImportFile checks that path names an existing regular file
// within the size limit. Returns the cleaned absolute path.
func ValidateImportFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return "", ErrPathTooLong
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, abs)
	}
	if info.Size() > MaxImportFileSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	return abs, nil
}

// ValidateUsername checks the username rules shared by registration and
// seeding: 3-32 characters, letters, digits, underscore, hyphen.
func ValidateUsername(name string) error {
	if len(name) < 3 || len(name) > 32 {
		return fmt.Errorf("username must be 3-32 characters")
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return fmt.Errorf("username contains invalid character %q", c)
		}
	}
	return nil
}
