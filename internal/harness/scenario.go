package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/solver"
)

// Scenario defines a model analysis scenario: a sequence of passes over one
// model and the assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE files holding lattice, model and solver
	// fields. Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Solver overrides the registry name picked from the solver block.
	Solver string `yaml:"solver,omitempty"`

	// Overrides replaces solver block fields. Keys are the CUE field
	// names of the constraint disciplines and fixed_point.
	Overrides map[string]string `yaml:"overrides,omitempty"`

	// Steps are the passes to run, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the last pass and the stored history.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one analysis pass.
type Step struct {
	// Mode is one of annotate, train, test, manual or clear.
	Mode string `yaml:"mode"`

	// Expect specifies the expected outcome.
	// If nil, the pass must succeed.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect specifies expected pass behavior.
type StepExpect struct {
	// Properties is a subset match on the resolved properties.
	Properties map[string]string `yaml:"properties,omitempty"`

	// Changed lists exactly the components whose property changed.
	Changed []string `yaml:"changed,omitempty"`

	// Error is a substring the pass error must contain. An empty Error
	// means the pass must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the last pass or the stored history.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert constants.
	Type string `yaml:"type"`

	// Component and Element are used by property.
	Component string `yaml:"component,omitempty"`
	Element   string `yaml:"element,omitempty"`

	// Constraint is used by constraint_contains.
	Constraint string `yaml:"constraint,omitempty"`

	// Constraints is the expected order (used by constraint_order).
	Constraints []string `yaml:"constraints,omitempty"`

	// Name is the statistics counter (used by stat).
	Name string `yaml:"name,omitempty"`

	// Status filters stored passes (used by stored_passes).
	Status string `yaml:"status,omitempty"`

	// Count is the expected number (constraint_count, stat,
	// stored_passes, feedback_loops).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertProperty           = "property"
	AssertConstraintContains = "constraint_contains"
	AssertConstraintOrder    = "constraint_order"
	AssertConstraintCount    = "constraint_count"
	AssertStat               = "stat"
	AssertStoredPasses       = "stored_passes"
	AssertFeedbackLoops      = "feedback_loops"
)

// overrideKeys are the solver fields a scenario may override.
var overrideKeys = map[string]bool{
	"actor_constraint":      true,
	"composite_constraint":  true,
	"fsm_constraint":        true,
	"expression_constraint": true,
	"fixed_point":           true,
	"source_element":        true,
}

// LoadScenario reads and parses a scenario YAML file.
// Spec paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) {
			scenario.Specs[i] = filepath.Join(base, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for key, value := range s.Overrides {
		if !overrideKeys[key] {
			return fmt.Errorf("overrides: unknown field %q", key)
		}
		if key == "fixed_point" || key == "source_element" {
			continue
		}
		if _, err := ir.ParseConstraintType(value); err != nil {
			return fmt.Errorf("overrides.%s: %w", key, err)
		}
	}

	for i, step := range s.Steps {
		if _, err := solver.ParseMode(step.Mode); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertProperty:
		if a.Component == "" || a.Element == "" {
			return fmt.Errorf("assertions[%d]: component and element are required for property", index)
		}
	case AssertConstraintContains:
		if a.Constraint == "" {
			return fmt.Errorf("assertions[%d]: constraint is required for constraint_contains", index)
		}
	case AssertConstraintOrder:
		if len(a.Constraints) == 0 {
			return fmt.Errorf("assertions[%d]: constraints list is required for constraint_order", index)
		}
	case AssertStat:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for stat", index)
		}
	case AssertConstraintCount, AssertStoredPasses, AssertFeedbackLoops:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
