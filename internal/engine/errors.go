package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// InvalidInputError reports a malformed or out-of-range birth field. It is
// returned before any computation starts.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s=%q: %s", config.ErrInvalidInput, e.Field, e.Value, e.Reason)
}

// InvalidPillarError is returned, wrapped with the pillar position, when the
// calendar service hands back a stem-branch pair outside the sexagenary cycle.
type InvalidPillarError = ganzhi.InvalidPillarError

// ErrNoSolarTerm is the cause reported when a calendar service returns no
// governing solar term.
var ErrNoSolarTerm = errors.New("no solar term found")

// CalculationError reports a calendar primitive that could not be resolved.
type CalculationError struct {
	Op  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", config.ErrCalculation, e.Op, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

func invalidInput(field, value, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

func calculation(op string, err error) error {
	return &CalculationError{Op: op, Err: err}
}
