package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/lattice"
	"github.com/roach88/propsolve/internal/testutil"
)

func TestInequalityIsSatisfied(t *testing.T) {
	lat := testutil.TypeLattice(t)
	intE := testutil.Element(t, lat, "Int")
	dbl := testutil.Element(t, lat, "Double")

	lesser := lattice.NewVariable(0, "a")
	greater := lattice.NewVariable(1, "b")
	q := &Inequality{Lesser: lesser, Greater: greater, IsBase: true}

	assert.True(t, q.IsSatisfied(lat), "unresolved lesser holds")

	require.NoError(t, lesser.SetValue(dbl))
	assert.False(t, q.IsSatisfied(lat), "unresolved greater fails")

	require.NoError(t, greater.SetValue(intE))
	assert.False(t, q.IsSatisfied(lat))

	greater.SetEffective(false)
	assert.True(t, q.IsSatisfied(lat), "ineffective side holds vacuously")

	greater.ResetEffective()
	require.NoError(t, greater.SetValue(dbl))
	assert.True(t, q.IsSatisfied(lat))

	assert.Equal(t, "a <= b", q.String())
}

func TestInequalityWithConstant(t *testing.T) {
	lat := testutil.TypeLattice(t)
	v := lattice.NewVariable(0, "v")
	q := &Inequality{Lesser: lattice.NewConstant(testutil.Element(t, lat, "Boolean")), Greater: v}

	require.NoError(t, v.SetValue(testutil.Element(t, lat, "Int")))
	assert.False(t, q.IsSatisfied(lat))

	require.NoError(t, v.SetValue(lat.Top()))
	assert.True(t, q.IsSatisfied(lat))
	assert.Equal(t, "Boolean <= v", q.String())
}

func TestPropertyAttribute(t *testing.T) {
	lat := testutil.TypeLattice(t)
	attr := NewPropertyAttribute("top.a.out")

	assert.Equal(t, "", attr.Expression())
	_, ok := attr.Property()
	assert.False(t, ok)
	assert.NoError(t, attr.Validate())
	assert.Equal(t, "full", string(attr.Visibility()))

	data, err := json.Marshal(attr)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	attr.SetProperty(testutil.Element(t, lat, "Double"))
	assert.Equal(t, "Double", attr.Expression())

	data, err = json.Marshal(attr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"top.a.out","property":"Double"}`, string(data))
}

func TestStats(t *testing.T) {
	s := NewStats()
	s.Increment("b", 2)
	s.Increment("a", 1)
	s.Increment("b", 1)

	assert.Equal(t, 3, s.Get("b"))
	assert.Equal(t, 0, s.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.Equal(t, map[string]int{"a": 1, "b": 3}, s.Snapshot())
}

func TestModeRecords(t *testing.T) {
	assert.True(t, ModeAnnotate.Records())
	assert.True(t, ModeTrain.Records())
	assert.True(t, ModeTest.Records())
	assert.False(t, ModeManualAnnotate.Records())
	assert.Equal(t, "train", ModeTrain.String())
}
