package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/ir"
)

func chainModel() ir.Model {
	return ir.Model{
		Name: "chain",
		Root: ir.Actor{
			Name: "chain",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{
				{
					Name:  "A",
					Class: "Const",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{{Name: "output", Direction: ir.DirOutput}},
					Attributes: []ir.Attribute{
						{Name: "value", Class: ir.ClassParameter, Expression: "x + 1"},
					},
				},
				{
					Name:  "B",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{{Name: "input", Direction: ir.DirInput}},
				},
			},
			Connections: []ir.Connection{{From: "A.output", To: "B.input"}},
		},
	}
}

func fsmModel() ir.Model {
	return ir.Model{
		Name: "machine",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{{
				Name:   "ctrl",
				Kind:   ir.ActorFSM,
				Ports:  []ir.Port{{Name: "y", Direction: ir.DirOutput}},
				States: []ir.State{{Name: "idle", Initial: true}, {Name: "busy"}},
				Transitions: []ir.Transition{{
					From:          "idle",
					To:            "busy",
					Guard:         "true",
					OutputActions: []ir.Assignment{{Destination: "y", Expression: "1"}},
				}},
			}},
		},
	}
}

func TestBuildChain(t *testing.T) {
	g, err := Build(chainModel())
	require.NoError(t, err)

	root := g.Component(g.Root())
	assert.Equal(t, KindComposite, root.Kind)
	require.Len(t, root.Actor.Children, 2)
	require.Len(t, root.Actor.Links, 1)

	a := root.Actor.Children[0]
	out, ok := g.Lookup(a, "output")
	require.True(t, ok)
	assert.Equal(t, "chain.A.output", g.FullName(out))

	b := root.Actor.Children[1]
	in, ok := g.Lookup(b, "input")
	require.True(t, ok)

	assert.Equal(t, []ID{in}, g.Sinks(out))
	assert.Equal(t, []ID{out}, g.Sources(in))
	assert.True(t, g.IsConnected(in))
	assert.Equal(t, []ID{g.Root(), a, b}, g.Actors())
	assert.Equal(t, a, g.ScopeOf(out))
}

func TestBuildDefaultsVisibility(t *testing.T) {
	g, err := Build(chainModel())
	require.NoError(t, err)

	a := g.Component(g.Root()).Actor.Children[0]
	attr, ok := g.Lookup(a, "value")
	require.True(t, ok)
	assert.Equal(t, ir.VisibilityFull, g.Component(attr).Attribute.Visibility)
}

func TestParseTreeIsCached(t *testing.T) {
	g, err := Build(chainModel())
	require.NoError(t, err)

	a := g.Component(g.Root()).Actor.Children[0]
	attr, _ := g.Lookup(a, "value")
	before := g.Len()

	root, err := g.ParseTree(attr)
	require.NoError(t, err)
	require.NotEqual(t, NoID, root)
	assert.Equal(t, before+3, g.Len(), "x + 1 has three nodes")

	again, err := g.ParseTree(attr)
	require.NoError(t, err)
	assert.Equal(t, root, again)
	assert.Equal(t, before+3, g.Len())

	node := g.Component(root)
	assert.Equal(t, KindExprNode, node.Kind)
	assert.Equal(t, "chain.A.value@r", g.FullName(root))
	assert.Equal(t, "chain.A.value@r.1", g.FullName(node.Expr.Children[1]))
	assert.Equal(t, a, g.ScopeOf(node.Expr.Children[0]))
}

func TestParseTreeErrorIsCached(t *testing.T) {
	m := chainModel()
	m.Root.Actors[0].Attributes[0].Expression = "x +"
	g, err := Build(m)
	require.NoError(t, err)

	a := g.Component(g.Root()).Actor.Children[0]
	attr, _ := g.Lookup(a, "value")
	_, err = g.ParseTree(attr)
	var pe *expr.ParseError
	require.True(t, errors.As(err, &pe))

	_, again := g.ParseTree(attr)
	assert.Equal(t, err, again)
}

func TestParseTreeBlank(t *testing.T) {
	m := chainModel()
	m.Root.Actors[0].Attributes[0].Expression = ""
	g, err := Build(m)
	require.NoError(t, err)

	a := g.Component(g.Root()).Actor.Children[0]
	attr, _ := g.Lookup(a, "value")
	root, err := g.ParseTree(attr)
	require.NoError(t, err)
	assert.Equal(t, NoID, root)
}

func TestParseTreeRejectsNonExpression(t *testing.T) {
	g, err := Build(chainModel())
	require.NoError(t, err)
	_, err = g.ParseTree(g.Root())
	assert.Error(t, err)
}

func TestBuildMachine(t *testing.T) {
	g, err := Build(fsmModel())
	require.NoError(t, err)

	ctrl := g.Component(g.Root()).Actor.Children[0]
	data := g.Component(ctrl).Actor
	require.Len(t, data.States, 2)
	require.Len(t, data.Transitions, 1)

	tr := g.Component(data.Transitions[0])
	assert.Equal(t, "t0", tr.Name)
	require.NotEqual(t, NoID, tr.Transition.Guard)
	assert.Equal(t, "top.ctrl.t0.guardTransition", g.FullName(tr.Transition.Guard))
	require.Len(t, tr.Transition.OutputActions, 1)

	action := g.Component(tr.Transition.OutputActions[0])
	assert.Equal(t, "y", action.Action.Destination)
	assert.Equal(t, "top.ctrl.t0.output_actions[0]", g.FullName(action.ID))
	assert.Equal(t, ctrl, g.ScopeOf(action.ID))
	assert.Equal(t, ctrl, g.ScopeOf(tr.Transition.Guard))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.Model)
		msg    string
	}{
		{"atomic root", func(m *ir.Model) { m.Root.Kind = ir.ActorAtomic }, "must be composite"},
		{"unknown kind", func(m *ir.Model) { m.Root.Actors[0].Kind = "widget" }, "unknown actor kind"},
		{"unknown actor", func(m *ir.Model) { m.Root.Connections[0].From = "Z.output" }, "unknown actor"},
		{"unknown port", func(m *ir.Model) { m.Root.Connections[0].To = "B.nope" }, "unknown port"},
		{"unknown own port", func(m *ir.Model) { m.Root.Connections[0].To = "nope" }, "unknown port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := chainModel()
			tt.mutate(&m)
			_, err := Build(m)
			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuildMachineUnknownState(t *testing.T) {
	m := fsmModel()
	m.Root.Actors[0].Transitions[0].To = "gone"
	_, err := Build(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown destination state")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fsm", KindFSM.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.True(t, KindComposite.IsActor())
	assert.False(t, KindPort.IsActor())
}
