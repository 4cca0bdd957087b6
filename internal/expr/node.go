package expr

import (
	"strings"
)

// NodeKind is the shape of a parse tree node.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeIdent
	NodeUnary
	NodeBinary
	NodeCall
	NodeList
	NodeSelector
	NodeIndex
)

var nodeKindNames = [...]string{
	NodeLiteral:  "literal",
	NodeIdent:    "ident",
	NodeUnary:    "unary",
	NodeBinary:   "binary",
	NodeCall:     "call",
	NodeList:     "list",
	NodeSelector: "selector",
	NodeIndex:    "index",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// LiteralKind classifies literal leaves. Keys match ir.Literal* constants.
type LiteralKind string

const (
	LiteralInt    LiteralKind = "int"
	LiteralFloat  LiteralKind = "float"
	LiteralString LiteralKind = "string"
	LiteralBool   LiteralKind = "bool"
	LiteralNull   LiteralKind = "null"
)

// Node is one node of an expression tree.
//
// For NodeLiteral, Literal and Value hold the literal kind and source text.
// For NodeIdent, Value holds the name. For NodeSelector, Value holds the
// selected label. For operators, Op holds the operator token. For NodeCall,
// Children[0] is the callee.
type Node struct {
	Kind     NodeKind
	Op       string
	Literal  LiteralKind
	Value    string
	Children []*Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Size returns the number of nodes in the tree.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Identifiers returns the distinct identifier names referenced by the tree,
// in first-occurrence order. Call targets are included.
func (n *Node) Identifiers() []string {
	var names []string
	seen := make(map[string]bool)
	n.Walk(func(m *Node) bool {
		if m.Kind == NodeIdent && !seen[m.Value] {
			seen[m.Value] = true
			names = append(names, m.Value)
		}
		return true
	})
	return names
}

// String renders the tree back into expression syntax, fully parenthesized
// for binary operators.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	switch n.Kind {
	case NodeLiteral, NodeIdent:
		b.WriteString(n.Value)
	case NodeUnary:
		b.WriteString(n.Op)
		n.Children[0].render(b)
	case NodeBinary:
		b.WriteByte('(')
		n.Children[0].render(b)
		b.WriteString(" " + n.Op + " ")
		n.Children[1].render(b)
		b.WriteByte(')')
	case NodeCall:
		n.Children[0].render(b)
		b.WriteByte('(')
		renderList(b, n.Children[1:])
		b.WriteByte(')')
	case NodeList:
		b.WriteByte('[')
		renderList(b, n.Children)
		b.WriteByte(']')
	case NodeSelector:
		n.Children[0].render(b)
		b.WriteString("." + n.Value)
	case NodeIndex:
		n.Children[0].render(b)
		b.WriteByte('[')
		n.Children[1].render(b)
		b.WriteByte(']')
	}
}

func renderList(b *strings.Builder, nodes []*Node) {
	for i, c := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		c.render(b)
	}
}
