package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/testutil"
)

func loopModel() ir.Model {
	return ir.Model{
		Name: "loop",
		Root: ir.Actor{
			Name: "top",
			Kind: ir.ActorComposite,
			Actors: []ir.Actor{
				{
					Name: "A",
					Kind: ir.ActorAtomic,
					Ports: []ir.Port{
						{Name: "in", Direction: ir.DirInput},
						{Name: "out", Direction: ir.DirOutput},
					},
				},
				{
					Name: "B",
					Kind: ir.ActorAtomic,
					Ports: []ir.Port{
						{Name: "in", Direction: ir.DirInput},
						{Name: "out", Direction: ir.DirOutput},
					},
				},
			},
			Connections: []ir.Connection{
				{From: "A.out", To: "B.in"},
				{From: "B.out", To: "A.in"},
			},
		},
	}
}

func TestAnalyzeFeedback_NoLoops(t *testing.T) {
	for name, m := range map[string]ir.Model{
		"pipeline":   testutil.PipelineModel(),
		"expression": testutil.ExpressionModel(),
		"machine":    testutil.MachineModel(),
	} {
		t.Run(name, func(t *testing.T) {
			loops := AnalyzeFeedback(&m)
			assert.NotNil(t, loops)
			assert.Empty(t, loops)
		})
	}
}

func TestAnalyzeFeedback_EmptyModel(t *testing.T) {
	m := &ir.Model{Name: "empty", Root: ir.Actor{Name: "top", Kind: ir.ActorComposite}}
	assert.Empty(t, AnalyzeFeedback(m))
}

func TestAnalyzeFeedback_TwoActorLoop(t *testing.T) {
	m := loopModel()

	loops := AnalyzeFeedback(&m)
	require.Len(t, loops, 1)
	assert.Equal(t, []string{"top.A.in", "top.A.out", "top.B.in", "top.B.out", "top.A.in"}, loops[0].Path)
	assert.Equal(t, "info", loops[0].Level)
	assert.Contains(t, loops[0].Message, "top.A.in -> top.A.out")
}

func TestAnalyzeFeedback_SelfLoop(t *testing.T) {
	m := ir.Model{
		Name: "self",
		Root: ir.Actor{
			Name:        "top",
			Kind:        ir.ActorComposite,
			Ports:       []ir.Port{{Name: "p", Direction: ir.DirInput}},
			Connections: []ir.Connection{{From: "p", To: "p"}},
		},
	}

	loops := AnalyzeFeedback(&m)
	require.Len(t, loops, 1)
	assert.Equal(t, []string{"top.p", "top.p"}, loops[0].Path)
	assert.Contains(t, loops[0].Message, "feeds itself")
}

func TestAnalyzeFeedback_NestedComposite(t *testing.T) {
	m := loopModel()
	// Route B's output back through a nested composite.
	m.Root.Actors = append(m.Root.Actors, ir.Actor{
		Name: "wrap",
		Kind: ir.ActorComposite,
		Ports: []ir.Port{
			{Name: "in", Direction: ir.DirInput},
			{Name: "out", Direction: ir.DirOutput},
		},
		Actors: []ir.Actor{{
			Name: "C",
			Kind: ir.ActorAtomic,
			Ports: []ir.Port{
				{Name: "in", Direction: ir.DirInput},
				{Name: "out", Direction: ir.DirOutput},
			},
		}},
		Connections: []ir.Connection{
			{From: "in", To: "C.in"},
			{From: "C.out", To: "out"},
		},
	})
	m.Root.Connections = []ir.Connection{
		{From: "A.out", To: "B.in"},
		{From: "B.out", To: "wrap.in"},
		{From: "wrap.out", To: "A.in"},
	}

	loops := AnalyzeFeedback(&m)
	require.Len(t, loops, 1)
	assert.Len(t, loops[0].Path, 9)
	assert.Contains(t, loops[0].Path, "top.wrap.C.out")
	assert.Equal(t, loops[0].Path[0], loops[0].Path[len(loops[0].Path)-1])
}
