// Package testutil provides fixtures shared by package tests: a small
// type lattice, sample models and deterministic pass ids.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// TypeLatticeSpec returns a small type lattice:
//
//	        General
//	      /    |    \
//	Boolean  Double  String
//	   |       |       |
//	   |      Int      |
//	    \      |      /
//	       Unknown
func TypeLatticeSpec() ir.LatticeSpec {
	return ir.LatticeSpec{
		Name:     "types",
		Elements: []string{"Unknown", "Boolean", "Int", "Double", "String", "General"},
		Order: []ir.Cover{
			{Lesser: "Unknown", Greater: "Boolean"},
			{Lesser: "Unknown", Greater: "Int"},
			{Lesser: "Unknown", Greater: "String"},
			{Lesser: "Int", Greater: "Double"},
			{Lesser: "Boolean", Greater: "General"},
			{Lesser: "Double", Greater: "General"},
			{Lesser: "String", Greater: "General"},
		},
		Literals: map[string]string{
			ir.LiteralInt:    "Int",
			ir.LiteralFloat:  "Double",
			ir.LiteralBool:   "Boolean",
			ir.LiteralString: "String",
		},
	}
}

// TypeLattice builds the lattice of TypeLatticeSpec.
func TypeLattice(t testing.TB) *lattice.Finite {
	t.Helper()
	l, err := lattice.NewFinite(TypeLatticeSpec())
	require.NoError(t, err)
	return l
}

// Element looks up a lattice element and fails the test if it is missing.
func Element(t testing.TB, l lattice.Lattice, name string) lattice.Element {
	t.Helper()
	e, ok := l.Element(name)
	require.True(t, ok, "lattice %s has no element %q", l.Name(), name)
	return e
}

// BuildGraph flattens a model and fails the test on error.
func BuildGraph(t testing.TB, m ir.Model) *graph.Graph {
	t.Helper()
	g, err := graph.Build(m)
	require.NoError(t, err)
	return g
}

// ComponentID resolves a dotted full name such as "top.A.output".
func ComponentID(t testing.TB, g *graph.Graph, fullName string) graph.ID {
	t.Helper()
	for id := graph.ID(0); int(id) < g.Len(); id++ {
		if g.FullName(id) == fullName {
			return id
		}
	}
	require.Failf(t, "component not found", "no component named %q", fullName)
	return graph.NoID
}

// PipelineModel is A -> B where A's output is pinned to Int.
func PipelineModel() ir.Model {
	return ir.Model{
		Name: "pipeline",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{
				{
					Name:  "A",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{{Name: "out", Direction: ir.DirOutput, Property: "Int"}},
				},
				{
					Name:  "B",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{{Name: "in", Direction: ir.DirInput}},
				},
			},
			Connections: []ir.Connection{{From: "A.out", To: "B.in"}},
		},
	}
}

// ExpressionModel feeds a constant into an Expression actor computing
// "in + 0.5" and a sink.
func ExpressionModel() ir.Model {
	return ir.Model{
		Name: "expression",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{
				{
					Name:  "src",
					Class: "Const",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{
						{Name: "trigger", Direction: ir.DirInput},
						{Name: "output", Direction: ir.DirOutput},
					},
					Annotations: []string{"output >= Int"},
				},
				{
					Name:  "calc",
					Class: "Expression",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{
						{Name: "in", Direction: ir.DirInput},
						{Name: "output", Direction: ir.DirOutput},
					},
					Attributes: []ir.Attribute{
						{Name: "expression", Class: ir.ClassStringAttribute, Expression: "in + 0.5"},
					},
				},
				{
					Name:  "sink",
					Kind:  ir.ActorAtomic,
					Ports: []ir.Port{{Name: "input", Direction: ir.DirInput}},
				},
			},
			Connections: []ir.Connection{
				{From: "src.output", To: "calc.in"},
				{From: "calc.output", To: "sink.input"},
			},
		},
	}
}

// MachineModel is an FSM writing a boolean to y and leaving z unwritten.
func MachineModel() ir.Model {
	return ir.Model{
		Name: "machine",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{{
				Name: "ctrl",
				Kind: ir.ActorFSM,
				Ports: []ir.Port{
					{Name: "x", Direction: ir.DirInput},
					{Name: "y", Direction: ir.DirOutput},
					{Name: "z", Direction: ir.DirOutput},
				},
				States: []ir.State{{Name: "idle", Initial: true}, {Name: "busy"}},
				Transitions: []ir.Transition{
					{
						Name:          "go",
						From:          "idle",
						To:            "busy",
						Guard:         "x > 0",
						OutputActions: []ir.Assignment{{Destination: "y", Expression: "true"}},
					},
					{
						Name:          "back",
						From:          "busy",
						To:            "idle",
						OutputActions: []ir.Assignment{{Destination: "y", Expression: "false"}},
					},
				},
			}},
		},
	}
}
