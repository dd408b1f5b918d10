// Package apperrors defines sentinel errors shared across packages so
// callers can branch with errors.Is.
package apperrors

import "errors"

var (
	// ErrUnsupportedDialect is returned when the configured schema
	// dialect has no loader.
	ErrUnsupportedDialect = errors.New("unsupported schema dialect")

	// ErrNoUnits is returned when a run starts with an empty unit set.
	ErrNoUnits = errors.New("no analysis units provided")
)
