package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slayout/internal/layout"
)

// RunWithGolden executes a scenario and compares the rendered layout
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not be executed. A layout that
// differs from the golden file fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result.Layout)
	return result, nil
}

// AssertGolden compares the rendered layout against a golden file.
func AssertGolden(t *testing.T, name string, l *layout.StorageLayout) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(l.String()))
}
