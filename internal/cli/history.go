package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/slayout/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	GraphHash string
}

// RunSummary is one row of the history listing.
type RunSummary struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	Status      string `json:"status"`
	Source      string `json:"source"`
	GraphHash   string `json:"graph_hash"`
	Passes      int    `json:"passes"`
	Constraints int    `json:"constraints"`
	Error       string `json:"error,omitempty"`
}

// History is the output of the history command.
type History struct {
	Runs []RunSummary `json:"runs"`
}

func (h History) String() string {
	if len(h.Runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tID\tSTATUS\tPASSES\tSOURCE")
	for _, r := range h.Runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.Seq, r.ID, r.Status, r.Passes, r.Source)
	}
	w.Flush()
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Long: `List the runs recorded with analyze --db, oldest first.

Examples:
  slayout history --db runs.db
  slayout history --db runs.db --graph <graph-hash>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.GraphHash, "graph", "", "only list runs of this graph hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	var runs []store.Run
	if opts.GraphHash != "" {
		runs, err = st.RunsForGraph(ctx, opts.GraphHash)
	} else {
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	h := History{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		h.Runs = append(h.Runs, summarize(r))
	}
	return opts.formatter(cmd).Success(h)
}

// openStore opens the database named by flag, or the configured store.
func openStore(opts *RootOptions, flag string) (*store.Store, error) {
	path := flag
	if path == "" && opts.Config != nil {
		path = opts.Config.Store.Path
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set store.path in the config")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}


func summarize(r store.Run) RunSummary {
	return RunSummary{
		Seq:         r.Seq,
		ID:          r.ID,
		Status:      string(r.Status),
		Source:      r.Source,
		GraphHash:   r.GraphHash,
		Passes:      r.Passes,
		Constraints: r.Constraints,
		Error:       r.Error,
	}
}
