package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() Model {
	return Model{
		Name: "chain",
		Root: Actor{
			Name: "chain",
			Kind: ActorComposite,
			Actors: []Actor{
				{Name: "A", Kind: ActorAtomic, Ports: []Port{{Name: "output", Direction: DirOutput, Property: "Int"}}},
				{Name: "B", Kind: ActorAtomic, Ports: []Port{{Name: "input", Direction: DirInput}}},
			},
			Connections: []Connection{{From: "A.output", To: "B.input"}},
		},
	}
}

func testLattice() LatticeSpec {
	return LatticeSpec{
		Name:     "types",
		Elements: []string{"Int", "Double", "General"},
		Order:    []Cover{{Lesser: "Int", Greater: "Double"}, {Lesser: "Double", Greater: "General"}},
	}
}

func TestModelHashDeterminism(t *testing.T) {
	h1, err := ModelHash(testModel(), testLattice(), DefaultSolverConfig())
	require.NoError(t, err)
	h2, err := ModelHash(testModel(), testLattice(), DefaultSolverConfig())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "ModelHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestModelHashChangesWithInput(t *testing.T) {
	base, err := ModelHash(testModel(), testLattice(), DefaultSolverConfig())
	require.NoError(t, err)

	m := testModel()
	m.Root.Connections = nil
	changedModel, err := ModelHash(m, testLattice(), DefaultSolverConfig())
	require.NoError(t, err)

	cfg := DefaultSolverConfig()
	cfg.ActorConstraint = ConstraintEquals
	changedSolver, err := ModelHash(testModel(), testLattice(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, base, changedModel)
	assert.NotEqual(t, base, changedSolver)
}

func TestResultDigestKeyOrderIndependent(t *testing.T) {
	a := MustResultDigest(map[string]string{"x": "Int", "y": "Double"})
	b := MustResultDigest(map[string]string{"y": "Double", "x": "Int"})
	assert.Equal(t, a, b)

	c := MustResultDigest(map[string]string{"x": "Int", "y": "General"})
	assert.NotEqual(t, a, c)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`["a"]`)
	assert.NotEqual(t, hashWithDomain(DomainResult, data), hashWithDomain(DomainConstraints, data))
}

func TestConstraintsDigestOrderSensitive(t *testing.T) {
	a, err := ConstraintsDigest([]string{"a <= b", "b <= c"})
	require.NoError(t, err)
	b, err := ConstraintsDigest([]string{"b <= c", "a <= b"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestModelHashBareActors(t *testing.T) {
	m := Model{
		Name: "bare",
		Root: Actor{
			Name: "top",
			Kind: ActorComposite,
			Actors: []Actor{
				{Name: "A", Kind: ActorAtomic},
				{Name: "B", Kind: ActorAtomic, Ports: []Port{{Name: "in", Direction: DirInput}}},
			},
		},
	}
	lat := LatticeSpec{Name: "one", Elements: []string{"Int"}}

	h, err := ModelHash(m, lat, DefaultSolverConfig())
	require.NoError(t, err)
	assert.Len(t, h, 64)

	m.Root.Actors[0].Attributes = []Attribute{}
	same, err := ModelHash(m, lat, DefaultSolverConfig())
	require.NoError(t, err)
	assert.Equal(t, h, same, "nil and empty slices hash alike")
}
