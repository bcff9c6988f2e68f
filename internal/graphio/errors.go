package graphio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/slayout/internal/ir"
)

// CycleError reports operand loops in a document.
type CycleError struct {
	Cycles []ir.Cycle
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = c.String()
	}
	return fmt.Sprintf("graph contains %d cycle(s): %s", len(e.Cycles), strings.Join(parts, "; "))
}

// CodeSizeError reports bytecode over the EVM contract size limit.
type CodeSizeError struct {
	Size  int
	Limit int
}

func (e *CodeSizeError) Error() string {
	return fmt.Sprintf("bytecode is %d bytes, limit is %d", e.Size, e.Limit)
}

// NodeError reports a malformed node.
type NodeError struct {
	ID     int
	Reason string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d: %s", e.ID, e.Reason)
}

// IsCycleError returns true if err is a CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// IsCodeSizeError returns true if err is a CodeSizeError.
func IsCodeSizeError(err error) bool {
	var ce *CodeSizeError
	return errors.As(err, &ce)
}
