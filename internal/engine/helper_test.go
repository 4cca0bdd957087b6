package engine

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/testutil"
)

type pass struct {
	ctx  *Context
	root *Helper
	list []*Inequality
}

// runPass performs the constraint generation steps of one solver pass.
func runPass(t *testing.T, g *graph.Graph, arena *Arena, terms *Terms, opts ...ContextOption) pass {
	t.Helper()
	ctx := NewContext(g, testutil.TypeLattice(t), arena, terms, opts...)
	root, err := arena.Helper(g.Root())
	require.NoError(t, err)
	require.NoError(t, root.Reinitialize(ctx))
	require.NoError(t, root.AddDefaultConstraints(ctx, ctx.Disciplines.Actor))
	require.NoError(t, root.SetConnectionConstraintType(ctx, ctx.Disciplines))
	list, err := root.ConstraintList(ctx)
	require.NoError(t, err)
	return pass{ctx: ctx, root: root, list: list}
}

func newPass(t *testing.T, m ir.Model, opts ...ContextOption) pass {
	t.Helper()
	g := testutil.BuildGraph(t, m)
	return runPass(t, g, NewArena(g), NewTerms(g), opts...)
}

func render(list []*Inequality) []string {
	out := make([]string, len(list))
	for i, q := range list {
		out[i] = q.String()
	}
	return out
}

func disciplines(ct ir.ConstraintType) Disciplines {
	return Disciplines{Actor: ct, Composite: ct, FSM: ct, Expression: ct}
}

func TestPipelineSinkEqualsGreater(t *testing.T) {
	p := newPass(t, testutil.PipelineModel())

	assert.Equal(t, []string{"top.A.out <= top.B.in"}, render(p.list))

	out := testutil.ComponentID(t, p.ctx.Graph, "top.A.out")
	term := p.ctx.Term(out)
	assert.False(t, term.IsSettable())
	assert.True(t, p.ctx.IsAnnotated(out))
	v, ok := term.Value()
	require.True(t, ok)
	assert.Equal(t, "Int", v.Name())

	assert.Equal(t, 1, p.ctx.Stats().Get(StatManualAnnotations))
	assert.Equal(t, 1, p.ctx.Stats().Get(StatDefaultConstraints))
	assert.Equal(t, 1, p.ctx.Stats().Get(StatCompositeDefaultConstraints))
}

func TestPipelineSourceDisciplineSkipsAnnotatedSource(t *testing.T) {
	d := disciplines(ir.ConstraintSinkEqualsGreater)
	d.Composite = ir.ConstraintSrcEqualsGreater
	p := newPass(t, testutil.PipelineModel(), WithDisciplines(d))

	// A.out >= B.in would constrain the annotated A.out, so it is dropped.
	assert.Empty(t, p.list)
	assert.Equal(t, 0, p.ctx.Stats().Get(StatDefaultConstraints))
}

func TestEqualsRecordsBothDirections(t *testing.T) {
	m := testutil.PipelineModel()
	m.Root.Actors[0].Ports[0].Property = ""
	p := newPass(t, m, WithDisciplines(disciplines(ir.ConstraintEquals)))

	assert.Equal(t, []string{
		"top.A.out <= top.B.in",
		"top.B.in <= top.A.out",
	}, render(p.list))
}

func fanInModel() ir.Model {
	return ir.Model{
		Name: "fanin",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{
				{Name: "X", Kind: ir.ActorAtomic, Ports: []ir.Port{{Name: "out", Direction: ir.DirOutput}}},
				{Name: "Y", Kind: ir.ActorAtomic, Ports: []ir.Port{{Name: "out", Direction: ir.DirOutput}}},
				{Name: "S", Kind: ir.ActorAtomic, Ports: []ir.Port{{Name: "in", Direction: ir.DirInput}}},
			},
			Connections: []ir.Connection{
				{From: "X.out", To: "S.in"},
				{From: "Y.out", To: "S.in"},
			},
		},
	}
}

func TestSinkEqualsMeet(t *testing.T) {
	p := newPass(t, fanInModel(), WithDisciplines(disciplines(ir.ConstraintSinkEqualsMeet)))

	assert.Equal(t, []string{
		"meet(top.X.out, top.Y.out) <= top.S.in",
		"top.S.in <= meet(top.X.out, top.Y.out)",
	}, render(p.list))
	// One synthetic meet term relates S.in to both sources.
	assert.Same(t, p.list[0].Lesser, p.list[1].Greater)
}

func TestSrcEqualsMeetRelatesEachSource(t *testing.T) {
	p := newPass(t, fanInModel(), WithDisciplines(disciplines(ir.ConstraintSrcEqualsMeet)))

	assert.Equal(t, []string{
		"meet(top.S.in) <= top.X.out",
		"top.X.out <= meet(top.S.in)",
		"meet(top.S.in) <= top.Y.out",
		"top.Y.out <= meet(top.S.in)",
	}, render(p.list))
}

func TestMeetWithoutTargetsEmitsNothing(t *testing.T) {
	g := testutil.BuildGraph(t, fanInModel())
	arena := NewArena(g)
	ctx := NewContext(g, testutil.TypeLattice(t), arena, NewTerms(g))
	h, err := arena.Helper(g.Root())
	require.NoError(t, err)

	x := testutil.ComponentID(t, g, "top.X.out")
	h.constraintObject(ctx, ir.ConstraintSinkEqualsMeet, x, nil)
	h.constraintObject(ctx, ir.ConstraintSrcEqualsMeet, x, []graph.ID{})
	h.constraintObject(ctx, ir.ConstraintNone, x, []graph.ID{testutil.ComponentID(t, g, "top.S.in")})

	assert.Empty(t, h.OwnConstraints())
}

func TestExpressionModelConstraints(t *testing.T) {
	p := newPass(t, testutil.ExpressionModel())

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "expression_constraints", []byte(strings.Join(render(p.list), "\n")+"\n"))

	stats := p.ctx.Stats()
	assert.Equal(t, 7, stats.Get(StatDefaultConstraints))
	assert.Equal(t, 2, stats.Get(StatAtomicDefaultConstraints))
	assert.Equal(t, 2, stats.Get(StatCompositeDefaultConstraints))
	assert.Equal(t, 3, stats.Get(StatExprDefaultConstraints))
	assert.Equal(t, 1, stats.Get(StatManualAnnotations))

	trigger := testutil.ComponentID(t, p.ctx.Graph, "top.src.trigger")
	assert.False(t, p.ctx.Term(trigger).IsEffective(), "unconnected trigger is retired")
}

func TestConstraintListIsIdempotent(t *testing.T) {
	p := newPass(t, testutil.ExpressionModel())

	again, err := p.root.ConstraintList(p.ctx)
	require.NoError(t, err)
	assert.Equal(t, render(p.list), render(again))
}

func TestSourceAdapterFloor(t *testing.T) {
	m := ir.Model{
		Name: "floor",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{{
				Name:  "c",
				Class: "Const",
				Kind:  ir.ActorAtomic,
				Ports: []ir.Port{{Name: "output", Direction: ir.DirOutput}},
			}},
		},
	}

	p := newPass(t, m)
	assert.Equal(t, []string{"Unknown <= top.c.output"}, render(p.list))

	g := testutil.BuildGraph(t, m)
	lat := testutil.TypeLattice(t)
	p = runPass(t, g, NewArena(g), NewTerms(g), WithSourceElement(testutil.Element(t, lat, "Double")))
	assert.Equal(t, []string{"Double <= top.c.output"}, render(p.list))
}

func TestExpressionDisciplineNone(t *testing.T) {
	d := disciplines(ir.ConstraintSinkEqualsGreater)
	d.Expression = ir.ConstraintNone
	p := newPass(t, testutil.ExpressionModel(), WithDisciplines(d))

	for _, q := range p.list {
		assert.NotContains(t, q.String(), "@r")
	}
	subs, err := p.root.SubHelpers(p.ctx)
	require.NoError(t, err)
	for _, s := range subs {
		assert.NotEqual(t, graph.KindExprNode, s.Kind())
	}
}

func TestRepresentationErrorOnBadExpression(t *testing.T) {
	m := testutil.ExpressionModel()
	m.Root.Actors[1].Attributes[0].Expression = "in +"
	g := testutil.BuildGraph(t, m)
	arena := NewArena(g)
	ctx := NewContext(g, testutil.TypeLattice(t), arena, NewTerms(g))
	root, err := arena.Helper(g.Root())
	require.NoError(t, err)

	err = root.Reinitialize(ctx)
	require.Error(t, err)
	assert.True(t, IsRepresentationError(err))
	assert.Contains(t, err.Error(), "top.calc.expression")
}

func TestArenaRejectsNonHelperKinds(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)

	_, err := arena.Helper(testutil.ComponentID(t, g, "top.A.out"))
	assert.Error(t, err)

	h1, err := arena.Helper(g.Root())
	require.NoError(t, err)
	h2, err := arena.Helper(g.Root())
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	arena.Clear()
	assert.Equal(t, 0, arena.Len())
}

func TestPropertyables(t *testing.T) {
	m := ir.Model{
		Name: "props",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{{
				Name:  "e",
				Class: "Expression",
				Kind:  ir.ActorAtomic,
				Ports: []ir.Port{{Name: "output", Direction: ir.DirOutput}},
				Attributes: []ir.Attribute{
					{Name: "expression", Class: ir.ClassStringAttribute, Expression: "1"},
					{Name: "rate", Class: ir.ClassParameter, Expression: "2.0"},
					{Name: "hidden", Class: ir.ClassParameter, Visibility: ir.VisibilityExpert, Expression: "3"},
					{Name: "firingCountLimit", Class: ir.ClassParameter, Expression: "4"},
					{Name: "init", Class: ir.ClassPortParameter, Expression: "5"},
					{Name: "icon", Class: ir.ClassAttribute},
					{Name: "note", Class: ir.ClassStringAttribute, Expression: "6"},
				},
			}},
		},
	}
	g := testutil.BuildGraph(t, m)
	arena := NewArena(g)
	ctx := NewContext(g, testutil.TypeLattice(t), arena, NewTerms(g))
	h, err := arena.Helper(testutil.ComponentID(t, g, "top.e"))
	require.NoError(t, err)

	var names []string
	for _, id := range h.Propertyables(ctx) {
		names = append(names, g.FullName(id))
	}
	assert.Equal(t, []string{"top.e.output", "top.e.expression", "top.e.rate", "top.e.init"}, names)
}

func TestSourceAdapterFloorWithTrigger(t *testing.T) {
	m := ir.Model{
		Name: "floor",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{{
				Name:  "c",
				Class: "Const",
				Kind:  ir.ActorAtomic,
				Ports: []ir.Port{
					{Name: "trigger", Direction: ir.DirInput},
					{Name: "output", Direction: ir.DirOutput},
				},
			}},
		},
	}

	p := newPass(t, m)
	assert.Equal(t, []string{"Unknown <= top.c.output"}, render(p.list))
	assert.Zero(t, p.ctx.Stats().Get(StatAtomicDefaultConstraints))

	g := testutil.BuildGraph(t, m)
	lat := testutil.TypeLattice(t)
	p = runPass(t, g, NewArena(g), NewTerms(g), WithSourceElement(testutil.Element(t, lat, "Double")))
	assert.Equal(t, []string{"Double <= top.c.output"}, render(p.list))
}
