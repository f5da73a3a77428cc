package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the record store or model artifact does not exist yet
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData means an operation needs at least one record
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotTrained means a prediction was requested before any training
	ErrModelNotTrained = errors.New("model not trained")

	// ErrIO means the persistent medium could not be read or written
	ErrIO = errors.New("i/o failure")

	// ErrValidation means a record was rejected before reaching storage
	ErrValidation = errors.New("invalid record")
)

// ValidationError describes which field of a record was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

// Is reports ValidationError as ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
