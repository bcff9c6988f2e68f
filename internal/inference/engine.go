package inference

import (
	"fmt"
	"log/slog"

	"github.com/roach88/slayout/internal/watchdog"
)

// DefaultMaxPasses is the default fixpoint pass ceiling.
const DefaultMaxPasses = 64

// DefaultCheckInterval is the default number of rule applications between
// watchdog polls inside a pass.
const DefaultCheckInterval = 1024

// Engine drives the rule catalogue to a fixpoint over a State.
//
// INVARIANTS:
//   - rules are applied in catalogue order to values in registration order
//   - the rule slice never changes after construction
type Engine struct {
	rules         []Rule
	maxPasses     int
	checkInterval int
	logger        *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxPasses sets the fixpoint pass ceiling.
//
// Default: 64 passes (DefaultMaxPasses)
func WithMaxPasses(n int) EngineOption {
	return func(e *Engine) {
		e.maxPasses = n
	}
}

// WithCheckInterval sets how many rule applications run between watchdog
// polls. Zero polls only between passes.
func WithCheckInterval(n int) EngineOption {
	return func(e *Engine) {
		e.checkInterval = n
	}
}

// WithRules replaces the default rule catalogue.
func WithRules(rules ...Rule) EngineOption {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine using DefaultRules unless overridden.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		rules:         DefaultRules(),
		maxPasses:     DefaultMaxPasses,
		checkInterval: DefaultCheckInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns a copy of the catalogue in application order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// MaxPasses returns the pass ceiling.
func (e *Engine) MaxPasses() int { return e.maxPasses }

// Stats summarises one Run.
type Stats struct {
	Passes       int // passes that ran to completion
	Applications int // rule applications, including those of an interrupted pass
	Constraints  int // constraints held by the state afterwards
}

// Run applies passes until one adds no constraint.
//
// The watchdog is polled before every pass and every check interval inside
// a pass; expiry returns a *TimeoutError. Needing more than MaxPasses passes
// returns a *PassLimitError. A nil watchdog never expires.
func (e *Engine) Run(s *State, wd watchdog.Watchdog) (Stats, error) {
	if wd == nil {
		wd = watchdog.Lazy{}
	}
	quota := NewPassQuota(e.maxPasses)
	var stats Stats

	for {
		if wd.Expired() {
			e.logger.Warn("inference timed out between passes",
				"passes", stats.Passes,
				"constraints", s.Added())
			stats.Constraints = s.Added()
			return stats, &TimeoutError{Passes: stats.Passes, Applications: stats.Applications}
		}
		if err := quota.Check(); err != nil {
			e.logger.Error("inference pass limit exceeded",
				"passes", stats.Passes,
				"limit", e.maxPasses,
				"constraints", s.Added())
			stats.Constraints = s.Added()
			return stats, err
		}

		e.logger.Debug("inference pass started", "pass", quota.Current(), "values", s.Len())
		added, applied, err := e.pass(s, wd, stats)
		stats.Applications += applied
		if err != nil {
			stats.Constraints = s.Added()
			return stats, err
		}
		stats.Passes++
		e.logger.Debug("inference pass finished", "pass", stats.Passes, "added", added)

		if added == 0 {
			stats.Constraints = s.Added()
			e.logger.Info("inference reached fixpoint",
				"passes", stats.Passes,
				"values", s.Len(),
				"constraints", stats.Constraints)
			return stats, nil
		}
	}
}

// Pass runs one pass without a pass ceiling and returns the number of
// constraints it added.
func (e *Engine) Pass(s *State, wd watchdog.Watchdog) (int, error) {
	if wd == nil {
		wd = watchdog.Lazy{}
	}
	added, _, err := e.pass(s, wd, Stats{})
	return added, err
}

func (e *Engine) pass(s *State, wd watchdog.Watchdog, stats Stats) (added, applied int, err error) {
	before := s.Added()
	for _, tv := range s.TypeVars() {
		node, ok := s.Value(tv)
		if !ok {
			return 0, applied, &UnregisteredValueError{Value: s.values[tv]}
		}
		for _, r := range e.rules {
			if err := r.Infer(node, s); err != nil {
				return 0, applied, fmt.Errorf("rule %s on value %d: %w", r.Name(), node.ID, err)
			}
			applied++
			if e.checkInterval > 0 && applied%e.checkInterval == 0 && wd.Expired() {
				e.logger.Warn("inference timed out inside a pass",
					"passes", stats.Passes,
					"applications", stats.Applications+applied)
				return 0, applied, &TimeoutError{
					Passes:       stats.Passes,
					Applications: stats.Applications + applied,
				}
			}
		}
	}
	return s.Added() - before, applied, nil
}
