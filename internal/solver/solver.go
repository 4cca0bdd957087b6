package solver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/engine"
	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// Statistics added by the solver on top of the engine's counters.
const (
	StatConstraints = "# of constraints"
	StatTerms       = "# of property terms"
	StatIterations  = "# of iterations"
	StatIneffective = "# of ineffective terms"
)

// ErrNotBound is returned when a solver is used before Bind.
var ErrNotBound = errors.New("solver is not bound to a graph")

// Solver computes properties for one graph under one lattice and
// configuration. It is not safe for concurrent use.
type Solver struct {
	name   string
	lat    lattice.Lattice
	cfg    ir.SolverConfig
	logger *zap.Logger

	graph       *graph.Graph
	arena       *engine.Arena
	terms       *engine.Terms
	constraints []*engine.Inequality
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the solver's logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a solver named name.
func New(name string, lat lattice.Lattice, cfg ir.SolverConfig, opts ...Option) *Solver {
	cfg.Name = name
	s := &Solver{name: name, lat: lat, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the registry name of the solver.
func (s *Solver) Name() string { return s.name }

// Config returns the solver configuration.
func (s *Solver) Config() ir.SolverConfig { return s.cfg }

// Lattice returns the lattice properties are drawn from.
func (s *Solver) Lattice() lattice.Lattice { return s.lat }

// Arena returns the helper arena of the bound graph.
func (s *Solver) Arena() *engine.Arena { return s.arena }

// Bind attaches the solver to a graph, dropping all previous state.
func (s *Solver) Bind(g *graph.Graph) {
	s.graph = g
	s.arena = engine.NewArena(g)
	s.arena.SetDefaultConstraints(s.cfg.UseDefaultConstraints)
	s.terms = engine.NewTerms(g)
	s.constraints = nil
}

// Constraints returns the inequalities of the last pass.
func (s *Solver) Constraints() []*engine.Inequality {
	return s.constraints
}

// Result is the outcome of one successful pass.
type Result struct {
	// Properties maps component full names to resolved elements.
	Properties map[string]string
	// Changed lists components whose property differs from the value they
	// carried before the pass, sorted by component.
	Changed     []ir.PropertyChange
	Constraints []string
	Stats       map[string]int
}

func (s *Solver) newContext(mode engine.Mode) (*engine.Context, error) {
	opts := []engine.ContextOption{
		engine.WithMode(mode),
		engine.WithDisciplines(engine.DisciplinesFrom(s.cfg)),
		engine.WithAnnotations(s.cfg.Annotations),
		engine.WithLogger(s.logger),
	}
	if s.cfg.SourceElement != "" {
		e, ok := s.lat.Element(s.cfg.SourceElement)
		if !ok {
			return nil, fmt.Errorf("source element %q is not in lattice %s", s.cfg.SourceElement, s.lat.Name())
		}
		opts = append(opts, engine.WithSourceElement(e))
	}
	return engine.NewContext(s.graph, s.lat, s.arena, s.terms, opts...), nil
}

// Resolve runs one pass in the given mode. In ModeManualAnnotate only the
// annotations are evaluated: pinned terms are attached and nothing is
// solved.
func (s *Solver) Resolve(ctx context.Context, mode engine.Mode) (*Result, error) {
	if s.graph == nil {
		return nil, ErrNotBound
	}
	ectx, err := s.newContext(mode)
	if err != nil {
		return nil, err
	}
	root, err := s.arena.Helper(s.graph.Root())
	if err != nil {
		return nil, err
	}

	if err := root.Reinitialize(ectx); err != nil {
		return nil, fmt.Errorf("reinitialize: %w", err)
	}
	if mode == engine.ModeManualAnnotate {
		s.constraints = nil
		return s.collect(ectx, 0), nil
	}

	if err := root.AddDefaultConstraints(ectx, s.cfg.ActorConstraint); err != nil {
		return nil, fmt.Errorf("add default constraints: %w", err)
	}
	if err := root.SetConnectionConstraintType(ectx, ectx.Disciplines); err != nil {
		return nil, fmt.Errorf("set connection constraint type: %w", err)
	}
	list, err := root.ConstraintList(ectx)
	if err != nil {
		return nil, fmt.Errorf("collect constraints: %w", err)
	}
	s.constraints = list
	s.logger.Debug("constraints collected",
		zap.String("solver", s.name),
		zap.String("model", s.graph.Name()),
		zap.Int("constraints", len(list)),
		zap.Int("terms", s.terms.Len()))

	iterations, err := s.solve(ctx, list)
	if err != nil {
		return nil, err
	}
	if err := s.check(list); err != nil {
		return nil, err
	}
	return s.collect(ectx, iterations), nil
}

// solve iterates the inequalities until no term changes.
func (s *Solver) solve(ctx context.Context, list []*engine.Inequality) (int, error) {
	least := s.cfg.FixedPoint != ir.FixedPointGreatest
	start := s.lat.Bottom()
	if !least {
		start = s.lat.Top()
	}
	for _, id := range s.terms.IDs() {
		v, _ := s.terms.Lookup(id)
		if v.IsSettable() {
			if err := v.SetValue(start); err != nil {
				return 0, err
			}
		}
	}

	// Every change moves a term strictly up (or down) a finite lattice, so
	// the number of rounds is bounded by terms times lattice size.
	limit := (s.terms.Len()+1)*len(s.lat.Elements()) + 1
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return round, err
		}
		if round > limit {
			return round, &engine.ResolutionError{Solver: s.name, Message: fmt.Sprintf("no fixed point after %d rounds", limit)}
		}
		changed := false
		for _, q := range list {
			var (
				moved bool
				err   error
			)
			if least {
				moved, err = s.raise(q)
			} else {
				moved, err = s.lower(q)
			}
			if err != nil {
				return round, err
			}
			changed = changed || moved
		}
		if !changed {
			return round, nil
		}
	}
}

// raise sets greater := join(greater, lesser).
func (s *Solver) raise(q *engine.Inequality) (bool, error) {
	if !q.Greater.IsSettable() || !q.Greater.IsEffective() || !q.Lesser.IsEffective() {
		return false, nil
	}
	lv, ok := q.Lesser.Value()
	if !ok {
		return false, nil
	}
	gv, ok := q.Greater.Value()
	next := lv
	if ok {
		next = s.lat.Join(gv, lv)
	}
	if ok && next == gv {
		return false, nil
	}
	return true, q.Greater.SetValue(next)
}

// lower sets lesser := meet(lesser, greater).
func (s *Solver) lower(q *engine.Inequality) (bool, error) {
	if !q.Lesser.IsSettable() || !q.Lesser.IsEffective() || !q.Greater.IsEffective() {
		return false, nil
	}
	gv, ok := q.Greater.Value()
	if !ok {
		return false, nil
	}
	lv, ok := q.Lesser.Value()
	next := gv
	if ok {
		next = s.lat.Meet(lv, gv)
	}
	if ok && next == lv {
		return false, nil
	}
	return true, q.Lesser.SetValue(next)
}

// check verifies every inequality against the solution.
func (s *Solver) check(list []*engine.Inequality) error {
	var (
		violations []string
		components []string
		seen       = make(map[string]bool)
	)
	for _, q := range list {
		if q.IsSatisfied(s.lat) {
			continue
		}
		violations = append(violations, describe(q))
		for _, name := range termComponents(q.Lesser, q.Greater) {
			if !seen[name] {
				seen[name] = true
				components = append(components, name)
			}
		}
	}
	if len(violations) == 0 {
		return nil
	}
	s.logger.Warn("unsatisfied constraints",
		zap.String("solver", s.name),
		zap.Strings("violations", violations))
	return &engine.ResolutionError{
		Solver:     s.name,
		Components: components,
		Violations: violations,
		Message:    fmt.Sprintf("%d unsatisfied constraint(s)", len(violations)),
	}
}

func describe(q *engine.Inequality) string {
	render := func(t lattice.Term) string {
		if v, ok := t.Value(); ok {
			return fmt.Sprintf("%s(%s)", t, v.Name())
		}
		return t.String()
	}
	return render(q.Lesser) + " <= " + render(q.Greater)
}

// termComponents lists the component names a term refers to.
func termComponents(terms ...lattice.Term) []string {
	var out []string
	for _, t := range terms {
		switch v := t.(type) {
		case *lattice.Variable:
			out = append(out, v.Label)
		case *lattice.Meet:
			out = append(out, termComponents(v.Args()...)...)
		}
	}
	return out
}

// collect attaches the resolved properties and builds the result.
func (s *Solver) collect(ectx *engine.Context, iterations int) *Result {
	res := &Result{Properties: make(map[string]string)}
	ineffective := 0
	for _, id := range s.terms.IDs() {
		v, _ := s.terms.Lookup(id)
		if !v.IsEffective() {
			ineffective++
			continue
		}
		e, ok := v.Value()
		if !ok {
			continue
		}
		s.arena.Attach(id, e)
		name := s.graph.FullName(id)
		res.Properties[name] = e.Name()

		prev, had := s.arena.Previous(id)
		if had && prev != e {
			res.Changed = append(res.Changed, ir.PropertyChange{Component: name, Previous: prev.Name(), Current: e.Name()})
		}
	}
	slices.SortFunc(res.Changed, func(a, b ir.PropertyChange) int {
		return cmp.Compare(a.Component, b.Component)
	})

	res.Constraints = make([]string, len(s.constraints))
	for i, q := range s.constraints {
		res.Constraints[i] = q.String()
	}

	stats := ectx.Stats()
	stats.Increment(StatConstraints, len(s.constraints))
	stats.Increment(StatTerms, s.terms.Len())
	stats.Increment(StatIneffective, ineffective)
	if iterations > 0 {
		stats.Increment(StatIterations, iterations)
	}
	res.Stats = stats.Snapshot()
	return res
}

// Reset drops the constraints of the last pass together with helpers,
// terms and attached results, keeping the graph binding.
func (s *Solver) Reset() {
	if s.graph == nil {
		return
	}
	s.Bind(s.graph)
}

// ClearAll removes every attached result and recorded value.
func (s *Solver) ClearAll() {
	if s.arena != nil {
		s.arena.Clear()
	}
	if s.terms != nil {
		s.terms.Clear()
	}
	s.constraints = nil
}
