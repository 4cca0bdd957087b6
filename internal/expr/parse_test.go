package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind LiteralKind
	}{
		{"1", LiteralInt},
		{"2.5", LiteralFloat},
		{`"hello"`, LiteralString},
		{"true", LiteralBool},
		{"false", LiteralBool},
		{"null", LiteralNull},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			require.NotNil(t, n)
			assert.Equal(t, NodeLiteral, n.Kind)
			assert.Equal(t, tt.kind, n.Literal)
			assert.True(t, n.IsLeaf())
		})
	}
}

func TestParseEmptyYieldsNilTree(t *testing.T) {
	n, err := Parse("   ")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestParseBinaryTree(t *testing.T) {
	n, err := Parse("x + 2 * y")
	require.NoError(t, err)

	assert.Equal(t, NodeBinary, n.Kind)
	assert.Equal(t, "+", n.Op)
	require.Len(t, n.Children, 2)
	assert.Equal(t, NodeIdent, n.Children[0].Kind)
	assert.Equal(t, "*", n.Children[1].Op)
	assert.Equal(t, "(x + (2 * y))", n.String())
	assert.Equal(t, 5, n.Size())
}

func TestParseDropsParens(t *testing.T) {
	n, err := Parse("((a))")
	require.NoError(t, err)
	assert.Equal(t, NodeIdent, n.Kind)
	assert.Equal(t, "a", n.Value)
}

func TestParseCallListSelectorIndex(t *testing.T) {
	n, err := Parse("max(a, [1, 2], b.c, d[0])")
	require.NoError(t, err)

	assert.Equal(t, NodeCall, n.Kind)
	assert.Equal(t, "max", n.Op)
	require.Len(t, n.Children, 5)
	assert.Equal(t, NodeList, n.Children[2].Kind)
	assert.Equal(t, NodeSelector, n.Children[3].Kind)
	assert.Equal(t, "c", n.Children[3].Value)
	assert.Equal(t, NodeIndex, n.Children[4].Kind)
	assert.Equal(t, "max(a, [1, 2], b.c, d[0])", n.String())
}

func TestParseUnary(t *testing.T) {
	n, err := Parse("-x")
	require.NoError(t, err)
	assert.Equal(t, NodeUnary, n.Kind)
	assert.Equal(t, "-x", n.String())
}

func TestIdentifiers(t *testing.T) {
	n := MustParse("a + f(b, a) * c")
	assert.Equal(t, []string{"a", "f", "b", "c"}, n.Identifiers())
}

func TestWalkSkipsChildren(t *testing.T) {
	n := MustParse("(a + b) * c")
	var visited []string
	n.Walk(func(m *Node) bool {
		visited = append(visited, m.Kind.String())
		return m.Op != "+"
	})
	assert.Equal(t, []string{"binary", "binary", "ident"}, visited)
}

func TestParseError(t *testing.T) {
	_, err := Parse("a +")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "a +", pe.Source)
	assert.Contains(t, err.Error(), `parse expression "a +"`)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("(") })
}
