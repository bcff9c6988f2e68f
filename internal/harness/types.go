package harness

import (
	"github.com/roach88/slayout/internal/analyzer"
	"github.com/roach88/slayout/internal/layout"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the run recorded in the scenario's store.
	RunID string `json:"run_id"`

	// Layout is the layout as read back from the store.
	Layout *layout.StorageLayout `json:"layout"`

	// Report carries the analyzer's counters.
	Report *analyzer.Report `json:"report"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
