package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slayout/internal/analyzer"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/layout"
	"github.com/roach88/slayout/internal/lift"
	"github.com/roach88/slayout/internal/store"
	"github.com/roach88/slayout/internal/watchdog"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	MaxPasses int
	Timeout   time.Duration
	NoLift    bool
	Database  string

	// IDGenerator allows overriding run IDs (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// AnalyzeResult is the output of the analyze command.
type AnalyzeResult struct {
	RunID       string                `json:"run_id,omitempty"`
	Source      string                `json:"source"`
	GraphHash   string                `json:"graph_hash"`
	Layout      *layout.StorageLayout `json:"layout"`
	Passes      int                   `json:"passes"`
	Values      int                   `json:"values"`
	Constraints int                   `json:"constraints"`
	Lifted      lift.Stats            `json:"lifted"`
}

func (r AnalyzeResult) String() string {
	return layoutText{layout: r.Layout}.String()
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <graph.json|program.slx>",
		Short: "Infer the storage layout of a graph",
		Long: `Infer the storage layout of a contract from its symbolic value graph.

The analysis stops at a fixpoint, at the pass ceiling, or when the timeout
expires. On timeout the layout recovered so far is printed and the command
fails. With --db the run is recorded in the run history.

Exit codes:
  0 - Layout recovered
  1 - Timeout or pass limit exceeded
  2 - Command error (unreadable or invalid graph, database errors)

Examples:
  slayout analyze pair.slx
  slayout analyze --timeout 5s --db runs.db graph.json
  slayout analyze --format json --no-lift lifted.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "fixpoint pass ceiling (default from config)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "wall-clock budget (default from config, 0 disables)")
	cmd.Flags().BoolVar(&opts.NoLift, "no-lift", false, "analyze the graph without lifting")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.settings()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := opts.logger()
	out := opts.formatter(cmd)

	g, _, err := loadGraph(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load graph", err)
	}
	hash, err := g.ContentHash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash graph", err)
	}

	aopts := append(cfg.AnalyzerOptions(), analyzer.WithLogger(logger))
	if cmd.Flags().Changed("max-passes") {
		aopts = append(aopts, analyzer.WithMaxPasses(opts.MaxPasses))
	}
	if opts.NoLift {
		aopts = append(aopts, analyzer.WithoutLift())
	}
	timeout := cfg.Analysis.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.Timeout
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	wd := watchdog.Any{watchdog.FromContext(ctx)}
	if timeout > 0 {
		wd = append(wd, watchdog.NewDeadline(timeout))
	}

	logger.Debug("analyzing graph", "source", path, "values", g.Len(), "graph_hash", hash, "timeout", timeout)
	report, runErr := analyzer.New(aopts...).Run(g, wd)

	run := store.Run{
		Source:          path,
		GraphHash:       hash,
		Status:          store.StatusOK,
		AnalyzerVersion: ir.AnalyzerVersion,
		GraphVersion:    ir.GraphVersion,
	}
	if runErr != nil {
		run.Status = runStatus(runErr)
		run.Error = runErr.Error()
		run.Layout, _ = analyzer.PartialLayout(runErr)
	} else {
		run.Layout = report.Layout
		run.Passes = report.Passes
		run.Constraints = report.Constraints
	}

	if db := opts.database(); db != "" {
		if err := opts.record(ctx, db, &run); err != nil {
			return err
		}
	}

	if runErr != nil {
		return reportAnalysisError(out, run, runErr)
	}

	return out.Success(AnalyzeResult{
		RunID:       run.ID,
		Source:      path,
		GraphHash:   hash,
		Layout:      report.Layout,
		Passes:      report.Passes,
		Values:      report.Values,
		Constraints: report.Constraints,
		Lifted:      report.Lifted,
	})
}

// database returns the --db flag, falling back to the configured store.
func (o *AnalyzeOptions) database() string {
	if o.Database != "" {
		return o.Database
	}
	if o.Config != nil {
		return o.Config.Store.Path
	}
	return ""
}

func (o *AnalyzeOptions) record(ctx context.Context, path string, run *store.Run) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ids := o.IDGenerator
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	run.ID = ids.Generate()
	seq, err := st.WriteRun(ctx, *run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	o.logger().Info("run recorded", "run_id", run.ID, "seq", seq, "status", run.Status)
	return nil
}

func runStatus(err error) store.Status {
	switch {
	case analyzer.IsTimeout(err):
		return store.StatusTimeout
	case analyzer.IsPassLimit(err):
		return store.StatusPassLimit
	default:
		return store.StatusInvalid
	}
}

// reportAnalysisError prints the failure with any partial layout and maps
// it to an exit code.
func reportAnalysisError(out *OutputFormatter, run store.Run, err error) error {
	code := string(analyzer.ErrCodeInvariantViolation)
	var ae *analyzer.AnalysisError
	if errors.As(err, &ae) {
		code = string(ae.Code)
	}

	var details any
	if run.Layout != nil {
		if out.Format == "json" {
			details = map[string]any{"partial_layout": run.Layout, "run_id": run.ID}
		} else {
			details = layoutText{layout: run.Layout}
		}
	}
	if printErr := out.Error(code, err.Error(), details); printErr != nil {
		return printErr
	}

	if run.Status == store.StatusInvalid {
		return WrapExitError(ExitCommandError, "invalid graph", err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("analysis failed (%s)", run.Status), err)
}
