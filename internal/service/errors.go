package service

import (
	"errors"
	"fmt"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/repository"
)

var (
	// ErrNotFound is returned for unknown schedule ids.
	ErrNotFound = repository.ErrNotFound
	// ErrConflict is returned when manual and automatic feeding overlap.
	ErrConflict = engine.ErrConflict
	// ErrNoScales is returned by calibration when no load cell driver is wired.
	ErrNoScales = errors.New("scales not available")
)

// ValidationError reports malformed input before any state is changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
