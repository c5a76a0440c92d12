package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

// TestNotFoundUnwrapsToSentinel verifies typed not-found errors match
// the package sentinel through errors.Is.
func TestNotFoundUnwrapsToSentinel(t *testing.T) {
	err := NewNotFound("ayah", "2-155")
	if !Is(err, ErrNotFound) {
		t.Error("expected NotFoundError to match ErrNotFound")
	}
	if !strings.Contains(err.Error(), "2-155") {
		t.Errorf("expected ref in message, got %q", err.Error())
	}
}

// TestValidationUnwrapsToSentinel verifies validation errors match
// ErrValidation and carry the field name.
func TestValidationUnwrapsToSentinel(t *testing.T) {
	err := NewValidation("name", "theme name required")
	if !Is(err, ErrValidation) {
		t.Error("expected ValidationError to match ErrValidation")
	}
	var verr *ValidationError
	if !As(err, &verr) {
		t.Fatal("expected errors.As to find *ValidationError")
	}
	if verr.Field != "name" {
		t.Errorf("expected field name, got %q", verr.Field)
	}
}

// TestPermissionUnwrapsToSentinel verifies permission errors match
// ErrPermissionDenied and report the required role.
func TestPermissionUnwrapsToSentinel(t *testing.T) {
	err := NewPermission("approve contribution", "Ulama")
	if !Is(err, ErrPermissionDenied) {
		t.Error("expected PermissionError to match ErrPermissionDenied")
	}
	if !strings.Contains(err.Error(), "Ulama") {
		t.Errorf("expected required role in message, got %q", err.Error())
	}
}

// TestAlreadyResolvedUnwrapsToSentinel verifies the moderation repeat
// error matches ErrAlreadyResolved.
func TestAlreadyResolvedUnwrapsToSentinel(t *testing.T) {
	err := NewAlreadyResolved("abc-123", "Approved")
	if !Is(err, ErrAlreadyResolved) {
		t.Error("expected AlreadyResolvedError to match ErrAlreadyResolved")
	}
	if !strings.Contains(err.Error(), "Approved") {
		t.Errorf("expected terminal status in message, got %q", err.Error())
	}
}

// TestConflictUnwrapsToSentinel verifies conflict errors match
// ErrConflict.
func TestConflictUnwrapsToSentinel(t *testing.T) {
	err := NewConflict("theme", "Patience")
	if !Is(err, ErrConflict) {
		t.Error("expected ConflictError to match ErrConflict")
	}
}

// TestStorageWrapsUnderlying verifies storage errors expose the
// underlying cause through the unwrap chain.
func TestStorageWrapsUnderlying(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorage("commit", cause)
	if !Is(err, cause) {
		t.Error("expected StorageError to match its cause")
	}
	if !strings.Contains(err.Error(), "commit") {
		t.Errorf("expected operation in message, got %q", err.Error())
	}
}

// TestWrapNil verifies Wrap and Wrapf pass nil through.
func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

// TestWrapAddsContext verifies wrapped errors keep matching the
// original.
func TestWrapAddsContext(t *testing.T) {
	err := Wrap(ErrNotFound, "loading theme")
	if !Is(err, ErrNotFound) {
		t.Error("wrapped error should match original")
	}
	if !strings.Contains(err.Error(), "loading theme") {
		t.Errorf("expected context in message, got %q", err.Error())
	}
}
