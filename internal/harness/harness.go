package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/slayout/internal/analyzer"
	"github.com/roach88/slayout/internal/graphio"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/irtext"
	"github.com/roach88/slayout/internal/store"
	"github.com/roach88/slayout/internal/testutil"
)

// Harness executes scenarios against one store.
type Harness struct {
	store  *store.Store
	ids    store.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory store and returns the
// result. An error means the scenario could not be executed at all: its
// graph failed to load or the analysis failed. Failed assertions are
// reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    testutil.NewSequentialIDGenerator("run"),
		logger: slog.New(slog.DiscardHandler),
	}
	return h.Run(context.Background(), scenario)
}

// New creates a Harness that records runs in st.
func New(st *store.Store, ids store.IDGenerator, logger *slog.Logger) *Harness {
	return &Harness{store: st, ids: ids, logger: logger}
}

// Run executes a scenario, records the run and evaluates the assertions
// against the recorded layout.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := loadGraph(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	hash, err := g.ContentHash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash graph: %w", err)
	}

	opts := []analyzer.Option{
		analyzer.WithLogger(h.logger),
		analyzer.WithLift(!scenario.Options.NoLift),
	}
	if scenario.Options.MaxPasses > 0 {
		opts = append(opts, analyzer.WithMaxPasses(scenario.Options.MaxPasses))
	}
	report, err := analyzer.New(opts...).Run(g, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", scenario.Name, err)
	}

	id := h.ids.Generate()
	_, err = h.store.WriteRun(ctx, store.Run{
		ID:              id,
		Source:          scenario.Name,
		GraphHash:       hash,
		Status:          store.StatusOK,
		Passes:          report.Passes,
		Constraints:     report.Constraints,
		AnalyzerVersion: ir.AnalyzerVersion,
		GraphVersion:    ir.GraphVersion,
		Layout:          report.Layout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	recorded, err := h.store.ReadRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read run back: %w", err)
	}

	h.logger.Debug("scenario analyzed",
		"scenario", scenario.Name,
		"run_id", id,
		"slots", recorded.Layout.Len(),
	)

	result := NewResult()
	result.RunID = id
	result.Layout = recorded.Layout
	result.Report = report
	for _, msg := range EvaluateAssertions(recorded.Layout, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadGraph(s *Scenario) (*ir.Graph, error) {
	if s.Program != "" {
		return irtext.Compile(s.Name+".slx", s.Program)
	}
	prog, err := graphio.ReadFile(s.Graph)
	if err != nil {
		return nil, err
	}
	return prog.Graph, nil
}
