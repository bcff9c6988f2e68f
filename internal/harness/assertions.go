package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/layout"
)

// AssertionError is returned when an assertion fails. It carries the
// rendered layout for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Layout   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nLayout:\n")
	if e.Layout == "" {
		fmt.Fprintf(&buf, "  (empty)\n")
	}
	for _, line := range strings.Split(strings.TrimSuffix(e.Layout, "\n"), "\n") {
		if line != "" {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against l and returns the
// failure messages in assertion order.
func EvaluateAssertions(l *layout.StorageLayout, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(l, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluate(l *layout.StorageLayout, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Layout: l.String()}
	}

	switch a.Type {
	case AssertSlotType, AssertSlotAbsent:
		index, err := ir.ParseWord(a.Index)
		if err != nil {
			return fmt.Errorf("bad index %q: %w", a.Index, err)
		}
		where := fmt.Sprintf("slot %s offset %d", index.Hex(), a.Offset)
		slot, ok := l.Find(index, a.Offset)
		if a.Type == AssertSlotAbsent {
			if ok {
				return fail("no fragment at "+where, slot.String())
			}
			return nil
		}
		if !ok {
			return fail(where+": "+a.Expect, "no fragment at "+where)
		}
		if got := slot.Typ.String(); got != a.Expect {
			return fail(where+": "+a.Expect, slot.String())
		}
	case AssertSlotCount:
		if l.Len() != a.Count {
			return fail(fmt.Sprintf("%d fragments", a.Count), fmt.Sprintf("%d fragments", l.Len()))
		}
	case AssertConflictCount:
		if n := len(l.Conflicts()); n != a.Count {
			return fail(fmt.Sprintf("%d conflicts", a.Count), fmt.Sprintf("%d conflicts", n))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
