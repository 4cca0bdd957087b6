package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/propsolve/internal/compiler"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type        string   // Assertion type for categorization
	Expected    string   // Human-readable expected outcome
	Actual      string   // Human-readable actual outcome
	Constraints []string // Constraints of the last pass, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Constraints) > 0 {
		fmt.Fprintf(&buf, "\nConstraints:\n")
		for i, c := range e.Constraints {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, c)
		}
	}

	return buf.String()
}

func assertProperty(last *StepResult, a Assertion) error {
	got, ok := last.Properties[a.Component]
	if !ok {
		got = "no property"
	}
	if got == a.Element {
		return nil
	}
	return &AssertionError{
		Type:     AssertProperty,
		Expected: fmt.Sprintf("%s = %s", a.Component, a.Element),
		Actual:   got,
	}
}

// assertConstraintContains checks that one rendered constraint contains the
// expected text.
func assertConstraintContains(last *StepResult, a Assertion) error {
	for _, c := range last.Constraints {
		if strings.Contains(c, a.Constraint) {
			return nil
		}
	}
	return &AssertionError{
		Type:        AssertConstraintContains,
		Expected:    fmt.Sprintf("a constraint containing %q", a.Constraint),
		Actual:      "not found",
		Constraints: last.Constraints,
	}
}

// assertConstraintOrder checks that constraints matching each entry appear in
// the given order. Entries don't need to be consecutive.
func assertConstraintOrder(last *StepResult, a Assertion) error {
	pos := 0
	for _, want := range a.Constraints {
		found := false
		for pos < len(last.Constraints) {
			c := last.Constraints[pos]
			pos++
			if strings.Contains(c, want) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:        AssertConstraintOrder,
				Expected:    fmt.Sprintf("constraints in order: %v", a.Constraints),
				Actual:      fmt.Sprintf("%q not found in order", want),
				Constraints: last.Constraints,
			}
		}
	}
	return nil
}

func assertConstraintCount(last *StepResult, a Assertion) error {
	if len(last.Constraints) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:        AssertConstraintCount,
		Expected:    fmt.Sprintf("%d constraints", a.Count),
		Actual:      fmt.Sprintf("%d constraints", len(last.Constraints)),
		Constraints: last.Constraints,
	}
}

func assertStat(last *StepResult, a Assertion) error {
	got, ok := last.Stats[a.Name]
	if ok && got == a.Count {
		return nil
	}
	actual := fmt.Sprintf("%d", got)
	if !ok {
		actual = "missing"
	}
	return &AssertionError{
		Type:     AssertStat,
		Expected: fmt.Sprintf("%s = %d", a.Name, a.Count),
		Actual:   actual,
	}
}

// assertStoredPasses counts recorded passes of the model, optionally
// filtered by status.
func assertStoredPasses(ctx context.Context, st *store.Store, model string, a Assertion) error {
	passes, err := st.ListPasses(ctx, model)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredPasses,
			Expected: fmt.Sprintf("list passes of %s", model),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	count := 0
	for _, p := range passes {
		if a.Status == "" || string(p.Status) == a.Status {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	what := "passes"
	if a.Status != "" {
		what = a.Status + " passes"
	}
	return &AssertionError{
		Type:     AssertStoredPasses,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
	}
}

func assertFeedbackLoops(m *ir.Model, a Assertion) error {
	loops := compiler.AnalyzeFeedback(m)
	if len(loops) == a.Count {
		return nil
	}
	msgs := make([]string, 0, len(loops))
	for _, l := range loops {
		msgs = append(msgs, l.Message)
	}
	return &AssertionError{
		Type:     AssertFeedbackLoops,
		Expected: fmt.Sprintf("%d feedback loops", a.Count),
		Actual:   fmt.Sprintf("%d feedback loops %v", len(loops), msgs),
	}
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx   context.Context
	Store *store.Store
	Model *ir.Model
}

// needsPass reports whether an assertion type reads the last pass.
func needsPass(t string) bool {
	switch t {
	case AssertStoredPasses, AssertFeedbackLoops:
		return false
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Pass-level assertions read the last step that produced properties; the
// actx parameter provides store access and the compiled model.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	last := result.Last()

	for i, assertion := range assertions {
		var err error

		if needsPass(assertion.Type) && last == nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s requires a successful pass", i, assertion.Type))
			continue
		}

		switch assertion.Type {
		case AssertProperty:
			err = assertProperty(last, assertion)
		case AssertConstraintContains:
			err = assertConstraintContains(last, assertion)
		case AssertConstraintOrder:
			err = assertConstraintOrder(last, assertion)
		case AssertConstraintCount:
			err = assertConstraintCount(last, assertion)
		case AssertStat:
			err = assertStat(last, assertion)
		case AssertStoredPasses:
			if actx == nil || actx.Store == nil || actx.Model == nil {
				err = fmt.Errorf("assertion[%d]: stored_passes requires database context", i)
			} else {
				err = assertStoredPasses(actx.Ctx, actx.Store, actx.Model.Name, assertion)
			}
		case AssertFeedbackLoops:
			if actx == nil || actx.Model == nil {
				err = fmt.Errorf("assertion[%d]: feedback_loops requires a model", i)
			} else {
				err = assertFeedbackLoops(actx.Model, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
