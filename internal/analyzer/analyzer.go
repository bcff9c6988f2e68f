// Package analyzer runs storage layout inference end to end.
//
// One run validates the graph, lifts raw EVM expressions into mapping,
// sub-word and packed shapes, registers every lifted value in a fresh
// inference state, drives the rule catalogue to a fixpoint, and builds the
// storage layout from the unified types.
//
// Usage:
//
//	l, err := analyzer.Analyze(g, watchdog.NewDeadline(30*time.Second))
//	if analyzer.IsTimeout(err) {
//	    l, _ = analyzer.PartialLayout(err)
//	}
package analyzer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/slayout/internal/inference"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/layout"
	"github.com/roach88/slayout/internal/lift"
	"github.com/roach88/slayout/internal/unify"
	"github.com/roach88/slayout/internal/watchdog"
)

// Analyzer holds the configuration of analysis runs. It keeps no state
// between runs, so one Analyzer may be reused.
type Analyzer struct {
	maxPasses     int
	checkInterval int
	lift          bool
	logger        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxPasses sets the fixpoint pass ceiling.
//
// Default: 64 passes (inference.DefaultMaxPasses)
func WithMaxPasses(n int) Option {
	return func(a *Analyzer) {
		a.maxPasses = n
	}
}

// WithCheckInterval sets how many rule applications run between watchdog
// polls inside a pass.
//
// Default: 1024 (inference.DefaultCheckInterval)
func WithCheckInterval(n int) Option {
	return func(a *Analyzer) {
		a.checkInterval = n
	}
}

// WithoutLift analyzes the graph as given, for graphs whose producer
// already emits mapping, sub-word and packed shapes.
func WithoutLift() Option {
	return func(a *Analyzer) {
		a.lift = false
	}
}

// WithLift sets whether the lifting pass runs.
func WithLift(enabled bool) Option {
	return func(a *Analyzer) {
		a.lift = enabled
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxPasses:     inference.DefaultMaxPasses,
		checkInterval: inference.DefaultCheckInterval,
		lift:          true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report is the outcome of a successful run.
type Report struct {
	Layout      *layout.StorageLayout `json:"layout"`
	Passes      int                   `json:"passes"`
	Values      int                   `json:"values"`
	Constraints int                   `json:"constraints"`
	Lifted      lift.Stats            `json:"lifted"`
}

// Analyze runs a default Analyzer over g.
func Analyze(g *ir.Graph, wd watchdog.Watchdog) (*layout.StorageLayout, error) {
	r, err := New().Run(g, wd)
	if err != nil {
		return nil, err
	}
	return r.Layout, nil
}

// Run analyzes g. Errors are *AnalysisError. A nil watchdog never expires.
func (a *Analyzer) Run(g *ir.Graph, wd watchdog.Watchdog) (*Report, error) {
	if wd == nil {
		wd = watchdog.Lazy{}
	}
	if err := validate(g); err != nil {
		return nil, &AnalysisError{Code: ErrCodeInvariantViolation, Message: "invalid graph", Err: err}
	}

	report := &Report{}
	if a.lift {
		lifted, stats, err := lift.Lift(g)
		if err != nil {
			return nil, &AnalysisError{Code: ErrCodeInvariantViolation, Message: "lifting failed", Err: err}
		}
		a.logger.Debug("lifted graph",
			"values_in", g.Len(),
			"values_out", lifted.Len(),
			"mappings", stats.Mappings,
			"sub_words", stats.SubWords,
			"packed", stats.Packed,
			"folded", stats.Folded)
		g, report.Lifted = lifted, stats
	}

	s := inference.NewState(g)
	if err := s.RegisterGraph(); err != nil {
		return nil, &AnalysisError{Code: ErrCodeInvariantViolation, Message: "registration failed", Err: err}
	}
	report.Values = s.Len()

	engine := inference.New(
		inference.WithMaxPasses(a.maxPasses),
		inference.WithCheckInterval(a.checkInterval),
		inference.WithLogger(a.logger),
	)
	stats, err := engine.Run(s, wd)
	report.Passes, report.Constraints = stats.Passes, stats.Constraints
	if err != nil {
		return nil, a.runError(s, stats, err)
	}

	l, err := layout.Build(s, unify.New(s))
	if err != nil {
		return nil, &AnalysisError{Code: ErrCodeInvariantViolation, Message: "layout failed", Err: err}
	}
	report.Layout = l
	a.logger.Info("analysis complete",
		"slots", l.Len(),
		"conflicts", len(l.Conflicts()),
		"passes", report.Passes)
	return report, nil
}

// runError classifies an engine failure. A timeout after at least one full
// pass carries the layout built from the constraints found so far.
func (a *Analyzer) runError(s *inference.State, stats inference.Stats, err error) error {
	switch {
	case inference.IsTimeout(err):
		ae := &AnalysisError{
			Code:    ErrCodeTimeout,
			Message: fmt.Sprintf("watchdog expired after %d passes", stats.Passes),
			Err:     err,
		}
		if stats.Passes > 0 {
			if l, buildErr := layout.Build(s, unify.New(s)); buildErr == nil {
				ae.Partial = l
			}
		}
		return ae
	case inference.IsPassLimit(err):
		return &AnalysisError{
			Code:    ErrCodePassLimitExceeded,
			Message: fmt.Sprintf("no fixpoint within %d passes", a.maxPasses),
			Err:     err,
		}
	default:
		return &AnalysisError{Code: ErrCodeInvariantViolation, Message: "inference failed", Err: err}
	}
}

// validate checks the arena invariants a graph must satisfy before
// analysis: it exists, and every operand precedes its user.
func validate(g *ir.Graph) error {
	if g == nil {
		return errors.New("nil graph")
	}
	for _, n := range g.Nodes() {
		for _, op := range n.Data.Operands() {
			if op < 0 || op >= n.ID {
				return &ir.OperandError{Kind: n.Kind(), Operand: op, Len: g.Len()}
			}
		}
	}
	return nil
}
