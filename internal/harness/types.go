package harness

import (
	"github.com/roach88/propsolve/internal/ir"
)

// StepResult is the outcome of one analysis pass of a scenario.
type StepResult struct {
	Mode        string              `json:"mode"`
	PassID      string              `json:"pass_id,omitempty"`
	Properties  map[string]string   `json:"properties,omitempty"`
	Changed     []ir.PropertyChange `json:"changed,omitempty"`
	Constraints []string            `json:"constraints,omitempty"`
	Stats       map[string]int      `json:"stats,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion holds.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Last returns the last step that produced properties, or nil.
func (r *Result) Last() *StepResult {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Error == "" && r.Steps[i].Properties != nil {
			return &r.Steps[i]
		}
	}
	return nil
}
