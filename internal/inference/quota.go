package inference

import (
	"errors"
	"fmt"
)

// PassQuota counts fixpoint passes and enforces the pass ceiling.
//
// Rules only add constraints drawn from a finite set, so the fixpoint is
// always reached eventually. Hitting the ceiling therefore means a rule is
// producing an unbounded family of type expressions, which is a bug.
type PassQuota struct {
	maxPasses int
	current   int
}

// NewPassQuota creates a quota allowing maxPasses passes.
func NewPassQuota(maxPasses int) *PassQuota {
	return &PassQuota{maxPasses: maxPasses}
}

// Check records the start of a pass and fails once the ceiling is passed.
func (q *PassQuota) Check() error {
	q.current++
	if q.current > q.maxPasses {
		return &PassLimitError{Passes: q.current - 1, Limit: q.maxPasses}
	}
	return nil
}

// Current returns the number of passes started.
func (q *PassQuota) Current() int {
	return q.current
}

// MaxPasses returns the ceiling.
func (q *PassQuota) MaxPasses() int {
	return q.maxPasses
}

// PassLimitError is returned when the fixpoint is not reached within the
// pass ceiling.
type PassLimitError struct {
	Passes int
	Limit  int
}

func (e *PassLimitError) Error() string {
	return fmt.Sprintf("inference did not reach a fixpoint: %d passes completed, limit %d",
		e.Passes, e.Limit)
}

// IsPassLimit returns true if err is a PassLimitError.
// Uses errors.As to handle wrapped errors.
func IsPassLimit(err error) bool {
	var pe *PassLimitError
	return errors.As(err, &pe)
}
