// Package config loads slayout configuration files written in CUE.
//
// A file is unified with an embedded schema that supplies defaults and
// rejects unknown fields:
//
//	analysis: {
//	    max_passes: 128
//	    timeout:    "2m"
//	}
//	output: format: "json"
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/slayout/internal/analyzer"
)

//go:embed schema.cue
var schemaSource string

// Config is the resolved configuration.
type Config struct {
	Analysis Analysis
	Store    Store
	Output   Output
}

// Analysis configures analysis runs.
type Analysis struct {
	MaxPasses     int
	CheckInterval int
	Timeout       time.Duration
	Lift          bool
}

// Store configures the run history.
type Store struct {
	Path string
}

// Output configures rendering.
type Output struct {
	Format string
	Color  bool
}

// Error is an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the schema defaults.
func Default() (*Config, error) {
	return Parse("", nil)
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse unifies src with the schema and resolves every field.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		user := ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var (
		cfg Config
		err error
	)
	if cfg.Analysis.MaxPasses, err = intField(v, "analysis.max_passes"); err != nil {
		return nil, err
	}
	if cfg.Analysis.CheckInterval, err = intField(v, "analysis.check_interval"); err != nil {
		return nil, err
	}
	timeout, err := stringField(v, "analysis.timeout")
	if err != nil {
		return nil, err
	}
	if cfg.Analysis.Timeout, err = time.ParseDuration(timeout); err != nil || cfg.Analysis.Timeout < 0 {
		return nil, &Error{
			Field:   "analysis.timeout",
			Message: fmt.Sprintf("%q is not a non-negative duration", timeout),
			Pos:     v.LookupPath(cue.ParsePath("analysis.timeout")).Pos(),
		}
	}
	if cfg.Analysis.Lift, err = boolField(v, "analysis.lift"); err != nil {
		return nil, err
	}
	if cfg.Store.Path, err = stringField(v, "store.path"); err != nil {
		return nil, err
	}
	if cfg.Output.Format, err = stringField(v, "output.format"); err != nil {
		return nil, err
	}
	if cfg.Output.Color, err = boolField(v, "output.color"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func field(v cue.Value, path string) cue.Value {
	f := v.LookupPath(cue.ParsePath(path))
	if d, ok := f.Default(); ok {
		return d
	}
	return f
}

func intField(v cue.Value, path string) (int, error) {
	n, err := field(v, path).Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func stringField(v cue.Value, path string) (string, error) {
	s, err := field(v, path).String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func boolField(v cue.Value, path string) (bool, error) {
	b, err := field(v, path).Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// AnalyzerOptions converts the analysis section into analyzer options.
func (c *Config) AnalyzerOptions() []analyzer.Option {
	return []analyzer.Option{
		analyzer.WithMaxPasses(c.Analysis.MaxPasses),
		analyzer.WithCheckInterval(c.Analysis.CheckInterval),
		analyzer.WithLift(c.Analysis.Lift),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
