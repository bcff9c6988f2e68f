package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a layout recovery test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the contract in the textual graph language.
	Program string `yaml:"program,omitempty"`

	// Graph is a path to a JSON graph document. Exactly one of Program and
	// Graph is set.
	Graph string `yaml:"graph,omitempty"`

	// Options tune the analyzer for this scenario.
	Options Options `yaml:"options,omitempty"`

	// Assertions validate the recovered layout.
	Assertions []Assertion `yaml:"assertions"`
}

// Options are per-scenario analyzer settings.
type Options struct {
	// MaxPasses overrides the fixpoint pass ceiling when positive.
	MaxPasses int `yaml:"max_passes,omitempty"`

	// NoLift analyzes the graph without lifting.
	NoLift bool `yaml:"no_lift,omitempty"`
}

// Assertion validates the recovered layout.
type Assertion struct {
	// Type is one of slot_type, slot_absent, slot_count, conflict_count.
	Type string `yaml:"type"`

	// Index is the slot index in hex or decimal (slot_type, slot_absent).
	Index string `yaml:"index,omitempty"`

	// Offset is the bit offset within the slot (slot_type, slot_absent).
	Offset uint16 `yaml:"offset,omitempty"`

	// Expect is the rendered type, as in "mapping(address => uint256)"
	// (slot_type).
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected number of fragments (slot_count, conflict_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSlotType      = "slot_type"
	AssertSlotAbsent    = "slot_absent"
	AssertSlotCount     = "slot_count"
	AssertConflictCount = "conflict_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative graph path
// is resolved against the scenario's directory. Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Graph != "" && !filepath.IsAbs(s.Graph) {
		s.Graph = filepath.Join(filepath.Dir(path), s.Graph)
	}
	return s, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarios loads every *.yaml scenario in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if (s.Program == "") == (s.Graph == "") {
		return errors.New("exactly one of program and graph is required")
	}
	if s.Options.MaxPasses < 0 {
		return errors.New("options.max_passes must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSlotType:
		if a.Index == "" {
			return fmt.Errorf("assertions[%d]: index is required for slot_type", index)
		}
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for slot_type", index)
		}
	case AssertSlotAbsent:
		if a.Index == "" {
			return fmt.Errorf("assertions[%d]: index is required for slot_absent", index)
		}
	case AssertSlotCount, AssertConflictCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Offset > 255 {
		return fmt.Errorf("assertions[%d]: offset %d is outside the word", index, a.Offset)
	}
	return nil
}
