// Package errors provides standardized error types and helpers for the
// al-Furqan core.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid input or a validation failure
	ErrValidation = errors.New("invalid input")
	// ErrPermissionDenied indicates the actor's role is below the required rank
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyResolved indicates a contribution that is no longer Pending
	ErrAlreadyResolved = errors.New("already resolved")
	// ErrConflict indicates a duplicate unique key where overwrite is forbidden
	ErrConflict = errors.New("conflict")
	// ErrStorage indicates a transaction-level storage failure
	ErrStorage = errors.New("storage error")
)

// NotFoundError represents an unresolved surah/ayah/word/contribution reference.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "surah", "ayah", "contribution")
	Ref      string // Identifier or coordinate of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.Ref)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents malformed input with context.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// PermissionError represents an operation attempted below its required role.
type PermissionError struct {
	Operation string // Operation that was attempted
	Required  string // Minimum role the operation requires
	Err       error  // Underlying error, if any
}

func (e *PermissionError) Error() string {
	if e.Operation != "" && e.Required != "" {
		return fmt.Sprintf("permission denied: %s requires role %s", e.Operation, e.Required)
	}
	return "permission denied"
}

func (e *PermissionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrPermissionDenied
}

// AlreadyResolvedError represents a moderation call against a contribution
// that is no longer Pending. Repeat calls are idempotent-safe: nothing is
// mutated when this error is returned.
type AlreadyResolvedError struct {
	ContributionID string // Contribution identifier
	Status         string // Terminal status the contribution already holds
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("contribution %s already resolved: %s", e.ContributionID, e.Status)
}

func (e *AlreadyResolvedError) Unwrap() error {
	return ErrAlreadyResolved
}

// ConflictError represents a duplicate unique key where overwrite is forbidden,
// e.g. a duplicate theme name during backup import.
type ConflictError struct {
	Resource string // Type of resource (e.g., "theme", "user")
	Key      string // The conflicting key value
	Err      error  // Underlying error, if any
}

func (e *ConflictError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s already exists: %s", e.Resource, e.Key)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConflict
}

// StorageError represents a transaction-level failure in the embedded store.
// Importers treat it as fatal for the whole file/document.
type StorageError struct {
	Operation string // Operation being performed (e.g., "begin", "commit", "insert")
	Err       error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("storage error: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStorage
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, ref string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Ref:      ref,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewPermission creates a PermissionError
func NewPermission(operation, required string) *PermissionError {
	return &PermissionError{
		Operation: operation,
		Required:  required,
	}
}

// NewAlreadyResolved creates an AlreadyResolvedError
func NewAlreadyResolved(contributionID, status string) *AlreadyResolvedError {
	return &AlreadyResolvedError{
		ContributionID: contributionID,
		Status:         status,
	}
}

// NewConflict creates a ConflictError
func NewConflict(resource, key string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Key:      key,
	}
}

// NewStorage creates a StorageError
func NewStorage(operation string, err error) *StorageError {
	return &StorageError{
		Operation: operation,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
