package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/testutil"
)

func TestReinitializeRecordsPreviousResults(t *testing.T) {
	m := testutil.PipelineModel()
	m.Root.Actors[0].Ports[0].Property = ""
	g := testutil.BuildGraph(t, m)
	arena := NewArena(g)
	terms := NewTerms(g)
	lat := testutil.TypeLattice(t)

	in := testutil.ComponentID(t, g, "top.B.in")
	require.NoError(t, terms.Term(in).SetValue(testutil.Element(t, lat, "Double")))
	arena.Attach(in, testutil.Element(t, lat, "Double"))

	runPass(t, g, arena, terms)

	prev, ok := arena.Previous(in)
	require.True(t, ok)
	assert.Equal(t, "Double", prev.Name())
	_, attached := arena.Attribute(in)
	assert.False(t, attached, "results are detached")
	_, resolved := terms.Term(in).Value()
	assert.False(t, resolved, "settable terms are cleared")
}

func TestReinitializeManualModeKeepsAttributes(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)
	lat := testutil.TypeLattice(t)

	in := testutil.ComponentID(t, g, "top.B.in")
	arena.Attach(in, testutil.Element(t, lat, "Int"))

	runPass(t, g, arena, NewTerms(g), WithMode(ModeManualAnnotate))

	_, ok := arena.Previous(in)
	assert.False(t, ok)
	attr, ok := arena.Attribute(in)
	require.True(t, ok)
	assert.Equal(t, "Int", attr.Expression())
}

func TestPinnedTermsSurviveReinitialize(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)
	terms := NewTerms(g)

	runPass(t, g, arena, terms)
	p := runPass(t, g, arena, terms, WithAnnotations(false))

	out := testutil.ComponentID(t, g, "top.A.out")
	v, ok := terms.Term(out).Value()
	require.True(t, ok)
	assert.Equal(t, "Int", v.Name())
	assert.False(t, p.ctx.IsAnnotated(out), "annotation bookkeeping is per pass")
}

func TestArenaAttached(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)
	lat := testutil.TypeLattice(t)

	in := testutil.ComponentID(t, g, "top.B.in")
	out := testutil.ComponentID(t, g, "top.A.out")
	arena.Attach(in, lat.Bottom())
	arena.Attach(out, lat.Top())

	assert.Equal(t, []int{int(out), int(in)}, idsAsInts(arena.Attached()))

	arena.Detach(out)
	assert.Len(t, arena.Attached(), 1)

	arena.Clear()
	assert.Empty(t, arena.Attached())
}

func TestArenaDefaultConstraintsToggle(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.ExpressionModel())
	arena := NewArena(g)
	arena.SetDefaultConstraints(false)

	p := runPass(t, g, arena, NewTerms(g))
	// calc's adapter and attribute constraints are not port defaults.
	assert.Equal(t, 2, p.ctx.Stats().Get(StatAtomicDefaultConstraints))
	h, err := arena.Helper(testutil.ComponentID(t, g, "top.calc"))
	require.NoError(t, err)
	assert.False(t, h.UsesDefaultConstraints())
}

func idsAsInts[T ~int](ids []T) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func TestArenaHelperUnknownID(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)

	for _, id := range []graph.ID{graph.NoID, graph.ID(g.Len()), graph.ID(g.Len() + 10)} {
		_, err := arena.Helper(id)
		assert.ErrorContains(t, err, "no component with id", "id %d", id)
	}
	assert.Zero(t, arena.Len())
}

func TestArenaMarshalSkipsUnsetAttributes(t *testing.T) {
	g := testutil.BuildGraph(t, testutil.PipelineModel())
	arena := NewArena(g)
	lat := testutil.TypeLattice(t)

	out := testutil.ComponentID(t, g, "top.A.out")
	arena.Attach(out, testutil.Element(t, lat, "Int"))
	in := testutil.ComponentID(t, g, "top.B.in")
	arena.attrs[in] = NewPropertyAttribute(g.FullName(in))

	data, err := json.Marshal(arena)
	require.NoError(t, err)
	assert.JSONEq(t, `{"top.A.out":"Int"}`, string(data))
}
