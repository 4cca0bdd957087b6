package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/compiler"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/solver"
	"github.com/roach88/propsolve/internal/store"
	"github.com/roach88/propsolve/internal/testutil"
)

// Harness runs the steps of one scenario against a fresh store.
type Harness struct {
	store    *store.Store
	analyzer *solver.Analyzer
	doc      *compiler.Document
	solver   string
	logger   *zap.Logger
}

// Option configures a harness run.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and the analyzer.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Pass ids
// are derived from the scenario name so stored history is reproducible.
//
// Execution flow:
// 1. Load, compile and validate the CUE specs, then apply overrides
// 2. Create fresh in-memory database
// 3. Run each step through the analyzer and check its expectations
// 4. Evaluate assertions and return the result
//
// A returned error means the scenario could not run at all. Failed
// expectations and assertions are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: zap.NewNop(), solver: scenario.Solver}
	for _, opt := range opts {
		opt(h)
	}

	doc, err := LoadDocument(scenario.Specs...)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(&doc.Solver, scenario.Overrides); err != nil {
		return nil, err
	}
	if err := compiler.AsError(compiler.Validate(doc)); err != nil {
		return nil, fmt.Errorf("invalid specs: %w", err)
	}
	h.doc = doc

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	h.analyzer = solver.NewAnalyzer(
		solver.WithRecorder(st),
		solver.WithGoldenStore(st),
		solver.WithPassIDGenerator(testutil.NewPassIDs(scenario.Name)),
		solver.WithClock(solver.NewClock()),
		solver.WithAnalyzerLogger(h.logger),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.executeStep(ctx, i, step, result)
	}

	actx := &AssertionContext{
		Ctx:   ctx,
		Store: st,
		Model: &doc.Model,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one pass and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	mode, err := solver.ParseMode(step.Mode)
	if err != nil {
		result.AddError(fmt.Sprintf("step %d: %v", i, err))
		return
	}

	rep, err := h.analyzer.Analyze(ctx, solver.Request{
		Model:   h.doc.Model,
		Lattice: h.doc.Lattice,
		Config:  h.doc.Solver,
		Solver:  h.solver,
		Mode:    mode,
	})

	sr := StepResult{Mode: string(mode)}
	if rep != nil {
		sr.PassID = rep.PassID
		sr.Properties = rep.Properties
		sr.Changed = rep.Changed
		sr.Constraints = rep.Constraints
		sr.Stats = rep.Stats
	}
	if err != nil {
		sr.Error = err.Error()
	}
	result.Steps = append(result.Steps, sr)

	h.logger.Info("step completed",
		zap.Int("step", i),
		zap.String("mode", sr.Mode),
		zap.String("pass", sr.PassID),
		zap.Bool("failed", err != nil))

	for _, msg := range checkExpect(i, step.Expect, sr) {
		result.AddError(msg)
	}
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(i int, expect *StepExpect, sr StepResult) []string {
	var errs []string
	if expect == nil || expect.Error == "" {
		if sr.Error != "" {
			return []string{fmt.Sprintf("step %d (%s): unexpected error: %s", i, sr.Mode, sr.Error)}
		}
	} else if !strings.Contains(sr.Error, expect.Error) {
		actual := sr.Error
		if actual == "" {
			actual = "no error"
		}
		errs = append(errs, fmt.Sprintf("step %d (%s): expected error containing %q, got %s", i, sr.Mode, expect.Error, actual))
	}
	if expect == nil {
		return errs
	}

	for _, component := range sortedKeys(expect.Properties) {
		want := expect.Properties[component]
		got, ok := sr.Properties[component]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("step %d (%s): %s has no property, expected %s", i, sr.Mode, component, want))
		case got != want:
			errs = append(errs, fmt.Sprintf("step %d (%s): %s = %s, expected %s", i, sr.Mode, component, got, want))
		}
	}

	if expect.Changed != nil {
		changed := make([]string, 0, len(sr.Changed))
		for _, c := range sr.Changed {
			changed = append(changed, c.Component)
		}
		want := slices.Sorted(slices.Values(expect.Changed))
		if !slices.Equal(changed, want) {
			errs = append(errs, fmt.Sprintf("step %d (%s): changed %v, expected %v", i, sr.Mode, changed, want))
		}
	}
	return errs
}

// LoadDocument compiles and unifies CUE files into one document.
func LoadDocument(paths ...string) (*compiler.Document, error) {
	if len(paths) == 0 {
		return nil, errors.New("no spec files")
	}
	cctx := cuecontext.New()
	var merged cue.Value
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		if i == 0 {
			merged = v
		} else {
			merged = merged.Unify(v)
		}
	}
	if err := merged.Err(); err != nil {
		return nil, fmt.Errorf("unify specs: %w", err)
	}
	return compiler.Compile(merged)
}

// applyOverrides replaces solver block fields named by a scenario.
func applyOverrides(cfg *ir.SolverConfig, overrides map[string]string) error {
	for _, key := range sortedKeys(overrides) {
		value := overrides[key]
		switch key {
		case "fixed_point":
			cfg.FixedPoint = ir.FixedPoint(value)
			continue
		case "source_element":
			cfg.SourceElement = value
			continue
		}

		ct, err := ir.ParseConstraintType(value)
		if err != nil {
			return fmt.Errorf("overrides.%s: %w", key, err)
		}
		switch key {
		case "actor_constraint":
			cfg.ActorConstraint = ct
		case "composite_constraint":
			cfg.CompositeConstraint = ct
		case "fsm_constraint":
			cfg.FSMConstraint = ct
		case "expression_constraint":
			cfg.ExpressionConstraint = ct
		default:
			return fmt.Errorf("overrides: unknown field %q", key)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
