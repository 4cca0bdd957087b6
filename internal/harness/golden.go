package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/propsolve/internal/ir"
)

// Snapshot captures every pass of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
// Statistics are left out; they are checked with stat assertions.
type Snapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Steps        []SnapshotStep `json:"steps"`
}

// SnapshotStep is the recorded part of one pass.
type SnapshotStep struct {
	Mode        string            `json:"mode"`
	PassID      string            `json:"pass_id,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snap := Snapshot{ScenarioName: name, Steps: make([]SnapshotStep, 0, len(result.Steps))}
	for _, s := range result.Steps {
		snap.Steps = append(snap.Steps, SnapshotStep{
			Mode:        s.Mode,
			PassID:      s.PassID,
			Properties:  s.Properties,
			Constraints: s.Constraints,
			Error:       s.Error,
		})
	}
	v, err := ir.ToCanonicalValue(snap)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(v)
}

// RunWithGolden executes a scenario and compares its passes against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the passes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
