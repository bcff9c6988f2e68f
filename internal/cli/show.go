package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slayout/internal/layout"
	"github.com/roach88/slayout/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// ShowResult is the output of the show command.
type ShowResult struct {
	RunSummary
	Layout *layout.StorageLayout `json:"layout"`
}

func (r ShowResult) String() string {
	s := fmt.Sprintf("run %s (seq %d) %s: %s\n", r.ID, r.Seq, r.Status, r.Source)
	if r.Error != "" {
		s += r.Error + "\n"
	}
	return s + layoutText{layout: r.Layout}.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the layout of a recorded run",
		Long: `Print a run recorded with analyze --db, including its layout.
Timed-out runs show the partial layout they recovered.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.ReadRun(commandContext(cmd), id)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("no run %q", id), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	return opts.formatter(cmd).Success(ShowResult{
		RunSummary: summarize(r),
		Layout:     r.Layout,
	})
}
