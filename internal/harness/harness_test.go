package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario, WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Steps, len(scenario.Steps))
		})
	}
}

func TestRun_PipelineLifecycle(t *testing.T) {
	result, err := Run(context.Background(), loadTestScenario(t, "pipeline_lifecycle"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Steps, 4)
	assert.Equal(t, "pipeline_lifecycle-0001", result.Steps[0].PassID)
	assert.Equal(t, "clear", result.Steps[3].Mode)
	assert.Nil(t, result.Steps[3].Properties)

	last := result.Last()
	require.NotNil(t, last)
	assert.Equal(t, "test", last.Mode)
}

func TestRun_FailedExpectations(t *testing.T) {
	scenario := loadTestScenario(t, "pipeline_lifecycle")
	scenario.Steps = []Step{{
		Mode: "annotate",
		Expect: &StepExpect{
			Properties: map[string]string{"top.B.in": "Double", "top.C.in": "Int"},
			Changed:    []string{"top.B.in"},
		},
	}}
	scenario.Assertions = []Assertion{
		{Type: AssertConstraintCount, Count: 3},
		{Type: AssertStoredPasses, Count: 2},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "top.B.in = Int, expected Double")
	assert.Contains(t, result.Errors[1], "top.C.in has no property")
	assert.Contains(t, result.Errors[2], "changed [], expected [top.B.in]")
	assert.Contains(t, result.Errors[3], "Expected: 3 constraints")
	assert.Contains(t, result.Errors[4], "Expected: 2 passes")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario := loadTestScenario(t, "source_discipline")
	scenario.Steps = []Step{{Mode: "annotate", Expect: &StepExpect{Error: "unsatisfied"}}}
	scenario.Assertions = nil

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error containing "unsatisfied", got no error`)
}

func TestRun_UnknownSolver(t *testing.T) {
	scenario := loadTestScenario(t, "source_discipline")
	scenario.Solver = "simplex"
	scenario.Steps = []Step{{Mode: "annotate", Expect: &StepExpect{Error: "unknown solver"}}}
	scenario.Assertions = []Assertion{{Type: AssertProperty, Component: "top.B.in", Element: "Int"}}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "property requires a successful pass")
}

func TestRun_GreatestSolver(t *testing.T) {
	scenario := loadTestScenario(t, "pipeline_lifecycle")
	scenario.Solver = "constraint-greatest"
	scenario.Steps = []Step{{
		Mode:   "annotate",
		Expect: &StepExpect{Properties: map[string]string{"top.A.out": "Int", "top.B.in": "General"}},
	}}
	scenario.Assertions = nil

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InvalidSpecs(t *testing.T) {
	scenario := loadTestScenario(t, "pipeline_lifecycle")
	scenario.Overrides = map[string]string{"fixed_point": "middle"}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid specs")
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, loadTestScenario(t, "pipeline_lifecycle"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDocument_Unifies(t *testing.T) {
	doc, err := LoadDocument(
		filepath.Join("testdata", "models", "types.cue"),
		filepath.Join("testdata", "models", "pipeline.cue"),
	)
	require.NoError(t, err)
	assert.Equal(t, "pipeline", doc.Model.Name)
	assert.Equal(t, "types", doc.Lattice.Name)
	assert.Equal(t, "constraint", doc.Solver.Name)
}

func TestLoadDocument_Errors(t *testing.T) {
	_, err := LoadDocument()
	require.Error(t, err)

	_, err = LoadDocument(filepath.Join("testdata", "models", "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read spec")

	_, err = LoadDocument(filepath.Join("testdata", "models", "pipeline.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lattice is required")
}
