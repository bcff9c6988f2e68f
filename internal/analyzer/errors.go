package analyzer

import (
	"errors"
	"fmt"

	"github.com/roach88/slayout/internal/layout"
)

// ErrorCode categorizes analysis failures.
type ErrorCode string

const (
	// ErrCodeInvariantViolation indicates a malformed graph or an internal
	// inconsistency such as an unregistered value.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeTimeout indicates the watchdog expired.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodePassLimitExceeded indicates inference did not reach a fixpoint
	// within the pass ceiling.
	ErrCodePassLimitExceeded ErrorCode = "PASS_LIMIT_EXCEEDED"
)

// AnalysisError is the run-level failure of Analyze.
//
// Type conflicts and unresolvable storage keys are not errors; they are
// reported in the layout.
type AnalysisError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Partial is the layout salvaged from the state when a timeout occurred
	// after at least one full pass. Nil otherwise.
	Partial *layout.StorageLayout

	// Err is the underlying cause.
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsTimeout returns true if the analysis was cancelled by its watchdog.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsInvariantViolation returns true if the input or state was malformed.
func IsInvariantViolation(err error) bool { return hasCode(err, ErrCodeInvariantViolation) }

// IsPassLimit returns true if inference failed to converge.
func IsPassLimit(err error) bool { return hasCode(err, ErrCodePassLimitExceeded) }

// PartialLayout returns the salvaged layout carried by err, if any.
func PartialLayout(err error) (*layout.StorageLayout, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Partial != nil {
		return ae.Partial, true
	}
	return nil, false
}
