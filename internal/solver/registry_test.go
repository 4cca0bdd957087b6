package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
	"github.com/roach88/propsolve/internal/testutil"
)

func TestBuiltinSolvers(t *testing.T) {
	names := Names()
	assert.Contains(t, names, ir.DefaultSolverName)
	assert.Contains(t, names, GreatestSolverName)

	ctor, ok := Lookup(GreatestSolverName)
	require.True(t, ok)
	s := ctor(testutil.TypeLattice(t), ir.DefaultSolverConfig())
	assert.Equal(t, GreatestSolverName, s.Name())
	assert.Equal(t, ir.FixedPointGreatest, s.Config().FixedPoint)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		Register(ir.DefaultSolverName, func(_ lattice.Lattice, cfg ir.SolverConfig, opts ...Option) *Solver {
			return nil
		})
	})
	assert.Panics(t, func() { Register("", nil) })
}

func TestNameFor(t *testing.T) {
	cfg := ir.DefaultSolverConfig()
	cfg.Name = ""
	assert.Equal(t, ir.DefaultSolverName, NameFor(cfg))

	cfg.FixedPoint = ir.FixedPointGreatest
	assert.Equal(t, GreatestSolverName, NameFor(cfg))

	cfg.Name = "custom"
	assert.Equal(t, "custom", NameFor(cfg))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("TRAIN")
	require.NoError(t, err)
	assert.Equal(t, ModeTrain, m)

	_, err = ParseMode("replay")
	assert.Error(t, err)
}
