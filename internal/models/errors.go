package models

import (
	"errors"
	"fmt"
)

// ValidationError carries a machine-readable code alongside the message
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a coded validation error
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ImportError is a structural problem with a whole import file: a missing
// required header column or an unknown race. It aborts the import before any
// row is processed.
type ImportError struct {
	Message string
}

func (e *ImportError) Error() string {
	return e.Message
}

// NewImportError creates an import-aborting error
func NewImportError(format string, args ...interface{}) *ImportError {
	return &ImportError{Message: fmt.Sprintf(format, args...)}
}

// Custom errors
var (
	// ErrResultNotFound is returned when a lookup targets a missing result.
	// Callers treat absence as a normal case, not a failure.
	ErrResultNotFound = errors.New("result not found")
	// ErrTeamResultNotFound is the team aggregate counterpart.
	ErrTeamResultNotFound = errors.New("team result not found")
	// ErrDuplicateResult signals a unique-index breach reached through a
	// non-upsert path. The public contract cannot produce it; seeing it means
	// a defect.
	ErrDuplicateResult = errors.New("duplicate result for subject and race")
	// ErrUnknownKind is returned for a result kind outside individual/team.
	ErrUnknownKind = errors.New("unknown result kind")
)
