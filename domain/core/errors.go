package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrProjectNotFound   = fmt.Errorf("%w: project", ErrNotFound)
	ErrRunNotFound       = fmt.Errorf("%w: run", ErrNotFound)
	ErrConditionNotFound = fmt.Errorf("%w: condition", ErrNotFound)
	ErrMeasureNotFound   = fmt.Errorf("%w: measure", ErrNotFound)

	// Validation errors
	ErrDesignMissing      = errors.New("experiment design missing")
	ErrNoStimuli          = errors.New("no stimuli defined")
	ErrTooFewConditions   = errors.New("design needs at least two conditions")
	ErrNoMeasures         = errors.New("design defines no measures")
	ErrUnassignedStimulus = errors.New("stimulus not assigned to a condition")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
	ErrHashMismatch     = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewDesignError(detail string) error {
	return fmt.Errorf("%w: %s", ErrDesignMissing, detail)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrDesignMissing) ||
		errors.Is(err, ErrNoStimuli) ||
		errors.Is(err, ErrTooFewConditions) ||
		errors.Is(err, ErrNoMeasures)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrSeedMismatch) ||
		errors.Is(err, ErrHashMismatch)
}
