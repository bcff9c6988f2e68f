package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slayout/internal/graphio"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	File         string `json:"file"`
	Valid        bool   `json:"valid"`
	Values       int    `json:"values"`
	Roots        int    `json:"roots"`
	BytecodeSize int    `json:"bytecode_size,omitempty"`
	GraphHash    string `json:"graph_hash"`
}

func (r ValidationResult) String() string {
	s := fmt.Sprintf("%s: valid (%d values, %d roots", r.File, r.Values, r.Roots)
	if r.BytecodeSize > 0 {
		s += fmt.Sprintf(", %d bytes of code", r.BytecodeSize)
	}
	return s + ")\n"
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph.json|program.slx>",
		Short: "Check a graph without analyzing it",
		Long: `Decode a graph document or compile a program and check it.

Documents are checked for dangling operands, cycles, bit ranges outside the
word and bytecode over the EVM code size limit. Programs are checked for
syntax, unknown operators and rebound names.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "cannot read graph", err)
	}

	g, bytecode, err := loadGraph(path)
	if err != nil {
		code := "INVALID_GRAPH"
		switch {
		case graphio.IsCycleError(err):
			code = "CYCLE"
		case graphio.IsCodeSizeError(err):
			code = "CODE_SIZE"
		}
		if printErr := out.Error(code, err.Error(), nil); printErr != nil {
			return printErr
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	hash, err := g.ContentHash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash graph", err)
	}
	return out.Success(ValidationResult{
		File:         path,
		Valid:        true,
		Values:       g.Len(),
		Roots:        len(g.Roots()),
		BytecodeSize: len(bytecode),
		GraphHash:    hash,
	})
}
