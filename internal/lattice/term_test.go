package lattice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableLifecycle(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	v := NewVariable(7, "A.output")
	_, ok := v.Value()
	assert.False(t, ok, "new variable is unresolved")
	assert.True(t, v.IsSettable())
	assert.True(t, v.IsEffective())
	assert.Empty(t, v.Constants())
	assert.Equal(t, []Term{v}, v.Variables())

	require.NoError(t, v.SetValue(mustElem(t, l, "Int")))
	got, ok := v.Value()
	require.True(t, ok)
	assert.Equal(t, "Int", got.Name())

	v.ClearValue()
	_, ok = v.Value()
	assert.False(t, ok)
}

func TestVariablePin(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	v := NewVariable(1, "x")
	v.Pin(mustElem(t, l, "Double"))

	assert.False(t, v.IsSettable())
	assert.Empty(t, v.Variables())

	err = v.SetValue(mustElem(t, l, "Int"))
	var nse *NotSettableError
	require.True(t, errors.As(err, &nse))

	v.ClearValue()
	got, ok := v.Value()
	require.True(t, ok, "pinned value survives ClearValue")
	assert.Equal(t, "Double", got.Name())

	v.Unpin()
	assert.True(t, v.IsSettable())
	_, ok = v.Value()
	assert.False(t, ok)
}

func TestVariableEffectivenessIsMonotonic(t *testing.T) {
	v := NewVariable(1, "x")
	v.SetEffective(false)
	assert.False(t, v.IsEffective())

	v.SetEffective(true)
	assert.False(t, v.IsEffective(), "ineffective terms stay ineffective until reset")

	v.ResetEffective()
	assert.True(t, v.IsEffective())
}

func TestConstant(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	c := NewConstant(mustElem(t, l, "Int"))
	got, ok := c.Value()
	require.True(t, ok)
	assert.Equal(t, "Int", got.Name())
	assert.False(t, c.IsSettable())
	assert.True(t, c.IsEffective())
	assert.Equal(t, []Term{c}, c.Constants())
	assert.Empty(t, c.Variables())
	assert.Error(t, c.SetValue(l.Top()))
	assert.Equal(t, "Int", c.String())
}

func TestMeetValue(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	a := NewVariable(1, "a")
	b := NewVariable(2, "b")
	c := NewConstant(mustElem(t, l, "Double"))
	m := NewMeet(l, []Term{a, b, c})

	got, ok := m.Value()
	require.True(t, ok, "constant argument resolves the meet")
	assert.Equal(t, "Double", got.Name())

	require.NoError(t, a.SetValue(mustElem(t, l, "Int")))
	got, _ = m.Value()
	assert.Equal(t, "Int", got.Name())

	require.NoError(t, b.SetValue(mustElem(t, l, "Boolean")))
	got, _ = m.Value()
	assert.Equal(t, "Unknown", got.Name())

	b.SetEffective(false)
	got, _ = m.Value()
	assert.Equal(t, "Int", got.Name(), "ineffective arguments are skipped")

	assert.Equal(t, []Term{a, b}, m.Variables())
	assert.Equal(t, []Term{c}, m.Constants())
	assert.Equal(t, "meet(a, b, Double)", m.String())
	assert.False(t, m.IsSettable())
}

func TestMeetUnresolved(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	m := NewMeet(l, []Term{NewVariable(1, "a")})
	_, ok := m.Value()
	assert.False(t, ok)
}

func TestMeetNestedConstants(t *testing.T) {
	l, err := NewFinite(typeSpec())
	require.NoError(t, err)

	c1 := NewConstant(mustElem(t, l, "Int"))
	c2 := NewConstant(mustElem(t, l, "Boolean"))
	inner := NewMeet(l, []Term{c1, NewVariable(1, "x")})
	outer := NewMeet(l, []Term{inner, c2})

	assert.Equal(t, []Term{c1, c2}, outer.Constants())
}
