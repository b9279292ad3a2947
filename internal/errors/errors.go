// Package errors provides custom error types for the URBFISC application.
//
// This package defines domain-specific errors that help with error handling
// and recovery throughout the application. Each error type provides context
// about what went wrong so the presentation layer can pick the right
// response for the user.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by stores when no occurrence matches a protocol id.
var ErrNotFound = stderrors.New("occurrence not found")

// StoreError wraps failures talking to the record store.
//
// This error is returned when:
//   - The database connection cannot be opened or pinged
//   - A query or transaction fails
//   - Schema migration fails
//
// Recovery strategy: none automatic. The web layer shows the message to the
// user and the operator is alerted.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store error: %s", e.Op)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error with context
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ValidationError reports submission fields that failed validation.
//
// Fields maps the form field name to a human readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// NewValidationError creates a validation error for the given fields
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// IsStoreError checks if the error chain contains a StoreError
func IsStoreError(err error) bool {
	var target *StoreError
	return stderrors.As(err, &target)
}

// IsValidation checks if the error chain contains a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsNotFound checks if the error chain contains ErrNotFound
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}
