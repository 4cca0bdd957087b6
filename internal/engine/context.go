package engine

import (
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// Statistic names maintained while constraints are generated.
const (
	StatDefaultConstraints          = "# of default constraints"
	StatAtomicDefaultConstraints    = "# of atomic actor default constraints"
	StatCompositeDefaultConstraints = "# of composite default constraints"
	StatExprDefaultConstraints      = "# of AST default constraints"
	StatManualAnnotations           = "# of manual annotations"
)

// Mode is the resolution mode of a pass.
type Mode int

const (
	// ModeAnnotate resolves and attaches results.
	ModeAnnotate Mode = iota
	// ModeTrain resolves and records the results as golden values.
	ModeTrain
	// ModeTest resolves and compares the results with golden values.
	ModeTest
	// ModeManualAnnotate only evaluates manual annotations.
	ModeManualAnnotate
)

var modeNames = [...]string{
	ModeAnnotate:       "annotate",
	ModeTrain:          "train",
	ModeTest:           "test",
	ModeManualAnnotate: "manual",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Records reports whether a pass in this mode remembers previous results.
func (m Mode) Records() bool {
	return m == ModeAnnotate || m == ModeTrain || m == ModeTest
}

// Disciplines holds the constraint type used for each kind of connection
// context.
type Disciplines struct {
	Actor      ir.ConstraintType
	Composite  ir.ConstraintType
	FSM        ir.ConstraintType
	Expression ir.ConstraintType
}

// DisciplinesFrom extracts the disciplines of a solver configuration.
func DisciplinesFrom(cfg ir.SolverConfig) Disciplines {
	return Disciplines{
		Actor:      cfg.ActorConstraint,
		Composite:  cfg.CompositeConstraint,
		FSM:        cfg.FSMConstraint,
		Expression: cfg.ExpressionConstraint,
	}
}

// Stats is an ordered set of named counters.
type Stats struct {
	counts map[string]int
}

// NewStats returns empty counters.
func NewStats() *Stats {
	return &Stats{counts: make(map[string]int)}
}

// Increment adds delta to the named counter.
func (s *Stats) Increment(name string, delta int) {
	s.counts[name] += delta
}

// Get returns the named counter, zero if never incremented.
func (s *Stats) Get(name string) int {
	return s.counts[name]
}

// Names returns the counter names in sorted order.
func (s *Stats) Names() []string {
	names := make([]string, 0, len(s.counts))
	for name := range s.counts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Terms maps components to their lattice variables.
type Terms struct {
	g    *graph.Graph
	vars map[graph.ID]*lattice.Variable
}

// NewTerms returns an empty term table over g.
func NewTerms(g *graph.Graph) *Terms {
	return &Terms{g: g, vars: make(map[graph.ID]*lattice.Variable)}
}

// Term returns the variable of a component, creating it on first use.
func (t *Terms) Term(id graph.ID) *lattice.Variable {
	v, ok := t.vars[id]
	if !ok {
		v = lattice.NewVariable(int(id), t.g.FullName(id))
		t.vars[id] = v
	}
	return v
}

// Lookup returns the variable of a component if one was created.
func (t *Terms) Lookup(id graph.ID) (*lattice.Variable, bool) {
	v, ok := t.vars[id]
	return v, ok
}

// IDs returns the components that have a variable, in id order.
func (t *Terms) IDs() []graph.ID {
	ids := make([]graph.ID, 0, len(t.vars))
	for id := range t.vars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of variables.
func (t *Terms) Len() int {
	return len(t.vars)
}

// Clear drops every variable.
func (t *Terms) Clear() {
	t.vars = make(map[graph.ID]*lattice.Variable)
}

// Context carries everything constraint generation needs for one pass.
// It is owned by the solver and passed into every helper call.
type Context struct {
	Graph       *graph.Graph
	Lattice     lattice.Lattice
	Arena       *Arena
	Terms       *Terms
	Mode        Mode
	Disciplines Disciplines
	Annotations bool
	// SourceElement is forced onto the outputs of source actors. The zero
	// Element means the lattice bottom.
	SourceElement lattice.Element
	Logger        *zap.Logger

	stats     *Stats
	annotated map[graph.ID]bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithMode sets the resolution mode.
func WithMode(m Mode) ContextOption {
	return func(c *Context) { c.Mode = m }
}

// WithDisciplines sets the constraint disciplines.
func WithDisciplines(d Disciplines) ContextOption {
	return func(c *Context) { c.Disciplines = d }
}

// WithAnnotations enables or disables manual annotation evaluation.
func WithAnnotations(enabled bool) ContextOption {
	return func(c *Context) { c.Annotations = enabled }
}

// WithSourceElement sets the element forced onto source actor outputs.
func WithSourceElement(e lattice.Element) ContextOption {
	return func(c *Context) { c.SourceElement = e }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) ContextOption {
	return func(c *Context) {
		if l != nil {
			c.Logger = l
		}
	}
}

// NewContext builds a pass context. Annotations are enabled and every
// discipline defaults to SINK_EQUALS_GREATER.
func NewContext(g *graph.Graph, lat lattice.Lattice, arena *Arena, terms *Terms, opts ...ContextOption) *Context {
	c := &Context{
		Graph:       g,
		Lattice:     lat,
		Arena:       arena,
		Terms:       terms,
		Mode:        ModeAnnotate,
		Disciplines: DisciplinesFrom(ir.DefaultSolverConfig()),
		Annotations: true,
		Logger:      zap.NewNop(),
		stats:       NewStats(),
		annotated:   make(map[graph.ID]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Term returns the lattice term of a component.
func (c *Context) Term(id graph.ID) *lattice.Variable {
	return c.Terms.Term(id)
}

// IncrementStats adds delta to a named statistic.
func (c *Context) IncrementStats(name string, delta int) {
	c.stats.Increment(name, delta)
}

// Stats returns the pass statistics.
func (c *Context) Stats() *Stats {
	return c.stats
}

// AddAnnotated records that a term was set explicitly by a user. Only
// component variables are tracked; constants and function terms are ignored.
func (c *Context) AddAnnotated(t lattice.Term) {
	if v, ok := t.(*lattice.Variable); ok {
		c.annotated[graph.ID(v.Key)] = true
	}
}

// IsAnnotated reports whether the component's term was set explicitly.
func (c *Context) IsAnnotated(id graph.ID) bool {
	return c.annotated[id]
}

func (c *Context) isAnnotatedTerm(t lattice.Term) bool {
	if v, ok := t.(*lattice.Variable); ok {
		return c.annotated[graph.ID(v.Key)]
	}
	return false
}

func (c *Context) sourceElement() lattice.Element {
	if c.SourceElement.IsZero() {
		return c.Lattice.Bottom()
	}
	return c.SourceElement
}

// evaluateAnnotations reports whether manual annotations apply in this pass.
func (c *Context) evaluateAnnotations() bool {
	return c.Annotations || c.Mode == ModeManualAnnotate
}
