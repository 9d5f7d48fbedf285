package service

import (
	"errors"
	"fmt"
)

// Every validation outcome is one of these sentinels wrapped with a
// user-facing message and the offending field. They are always recovered at
// the handler boundary; none is fatal.
var (
	ErrMissingField    = errors.New("missing field")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrReferentialMiss = errors.New("referential miss")
	ErrSizeOrType      = errors.New("size or type rejected")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// FieldError carries the single human-readable message of the first failing
// pipeline rule plus the field identifier for focus/highlight.
type FieldError struct {
	Field   string
	Message string
	kind    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kind.Error(), e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.kind
}

func missingField(field string) error {
	return &FieldError{Field: field, Message: field + " is required", kind: ErrMissingField}
}

func invalidFormat(field string, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrInvalidFormat}
}

func duplicateKey(field string, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrDuplicateKey}
}

func referentialMiss(field string, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrReferentialMiss}
}

func sizeOrTypeRejected(field string, message string) error {
	return &FieldError{Field: field, Message: message, kind: ErrSizeOrType}
}

func notFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, message)
}

func unauthorizedError(message string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, message)
}
