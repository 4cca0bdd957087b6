package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_PipelineLifecycle(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "pipeline_lifecycle"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	result := NewResult()
	result.Steps = append(result.Steps, StepResult{
		Mode:       "annotate",
		PassID:     "p-0001",
		Properties: map[string]string{"top.b": "Int", "top.a": "Double"},
		Stats:      map[string]int{"# of constraints": 2},
	})

	first, err := MarshalSnapshot("s", result)
	require.NoError(t, err)
	second, err := MarshalSnapshot("s", result)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t,
		`{"scenario_name":"s","steps":[{"mode":"annotate","pass_id":"p-0001","properties":{"top.a":"Double","top.b":"Int"}}]}`,
		string(first))
}
