// Package apperr defines the business error kinds shared across services:
// missing references, business-rule violations, and uniqueness conflicts.
// Handlers translate kinds into HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = iota
	// KindInvalidOperation means a business rule was violated.
	KindInvalidOperation
	// KindDuplicateEntry means a uniqueness constraint on reference data was hit.
	KindDuplicateEntry
)

// Error is a kind-tagged business error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidOperationf builds an InvalidOperation error.
func InvalidOperationf(format string, args ...any) error {
	return &Error{Kind: KindInvalidOperation, Msg: fmt.Sprintf(format, args...)}
}

// DuplicateEntryf builds a DuplicateEntry error.
func DuplicateEntryf(format string, args ...any) error {
	return &Error{Kind: KindDuplicateEntry, Msg: fmt.Sprintf(format, args...)}
}

func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsInvalidOperation reports whether err is an InvalidOperation error.
func IsInvalidOperation(err error) bool { return is(err, KindInvalidOperation) }

// IsDuplicateEntry reports whether err is a DuplicateEntry error.
func IsDuplicateEntry(err error) bool { return is(err, KindDuplicateEntry) }
