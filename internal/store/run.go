package store

import (
	"github.com/google/uuid"

	"github.com/roach88/slayout/internal/layout"
)

// Status is the outcome of a recorded run.
type Status string

const (
	StatusOK        Status = "ok"
	StatusTimeout   Status = "timeout"
	StatusPassLimit Status = "pass_limit"
	StatusInvalid   Status = "invalid"
)

// Run is one recorded analysis.
type Run struct {
	ID              string
	Seq             int64 // assigned by WriteRun
	Source          string
	GraphHash       string
	Status          Status
	Passes          int
	Constraints     int
	Error           string
	AnalyzerVersion string
	GraphVersion    string

	// Layout is nil when the run produced none.
	Layout *layout.StorageLayout
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
