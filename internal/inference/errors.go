package inference

import (
	"errors"
	"fmt"

	"github.com/roach88/slayout/internal/ir"
)

// UnregisteredValueError is returned when a value is used before it was
// registered with the State. It indicates a bug in a rule or a caller, never
// bad input.
type UnregisteredValueError struct {
	Value ir.ValueID
	// InGraph is false when the handle does not belong to the state's graph.
	InGraph bool
}

func (e *UnregisteredValueError) Error() string {
	if !e.InGraph {
		return fmt.Sprintf("value %d is not part of the analysed graph", e.Value)
	}
	return fmt.Sprintf("value %d was never registered", e.Value)
}

// IsUnregisteredValue returns true if err is an UnregisteredValueError.
// Uses errors.As to handle wrapped errors.
func IsUnregisteredValue(err error) bool {
	var ue *UnregisteredValueError
	return errors.As(err, &ue)
}

// TimeoutError is returned when the watchdog expires. Passes counts the
// passes that completed before expiry.
type TimeoutError struct {
	Passes       int
	Applications int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis budget expired after %d complete passes (%d rule applications)",
		e.Passes, e.Applications)
}

// IsTimeout returns true if err is a TimeoutError.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
