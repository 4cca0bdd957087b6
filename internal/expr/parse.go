package expr

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
)

// ParseError reports an expression that could not be turned into a tree.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse expression %q: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses src into a tree. An empty or blank expression yields a nil
// tree and no error.
func Parse(src string) (*Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	x, err := parser.ParseExpr("expression", src)
	if err != nil {
		return nil, &ParseError{Source: src, Err: err}
	}
	n, err := lower(x)
	if err != nil {
		return nil, &ParseError{Source: src, Err: err}
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// lower converts a CUE expression into a Node.
func lower(x ast.Expr) (*Node, error) {
	switch v := x.(type) {
	case *ast.BasicLit:
		return lowerBasicLit(v)
	case *ast.Ident:
		switch v.Name {
		case "true", "false":
			return &Node{Kind: NodeLiteral, Literal: LiteralBool, Value: v.Name}, nil
		case "null":
			return &Node{Kind: NodeLiteral, Literal: LiteralNull, Value: v.Name}, nil
		}
		return &Node{Kind: NodeIdent, Value: v.Name}, nil
	case *ast.ParenExpr:
		return lower(v.X)
	case *ast.UnaryExpr:
		operand, err := lower(v.X)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeUnary, Op: v.Op.String(), Children: []*Node{operand}}, nil
	case *ast.BinaryExpr:
		left, err := lower(v.X)
		if err != nil {
			return nil, err
		}
		right, err := lower(v.Y)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeBinary, Op: v.Op.String(), Children: []*Node{left, right}}, nil
	case *ast.CallExpr:
		fun, err := lower(v.Fun)
		if err != nil {
			return nil, err
		}
		children := []*Node{fun}
		for _, arg := range v.Args {
			c, err := lower(arg)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return &Node{Kind: NodeCall, Op: fun.String(), Children: children}, nil
	case *ast.ListLit:
		n := &Node{Kind: NodeList}
		for _, elt := range v.Elts {
			c, err := lower(elt)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		}
		return n, nil
	case *ast.SelectorExpr:
		target, err := lower(v.X)
		if err != nil {
			return nil, err
		}
		label, err := labelName(v.Sel)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeSelector, Value: label, Children: []*Node{target}}, nil
	case *ast.IndexExpr:
		target, err := lower(v.X)
		if err != nil {
			return nil, err
		}
		index, err := lower(v.Index)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeIndex, Children: []*Node{target, index}}, nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", x)
	}
}

func lowerBasicLit(v *ast.BasicLit) (*Node, error) {
	n := &Node{Kind: NodeLiteral, Value: v.Value}
	switch v.Kind {
	case token.INT:
		n.Literal = LiteralInt
	case token.FLOAT:
		n.Literal = LiteralFloat
	case token.STRING:
		n.Literal = LiteralString
	case token.TRUE, token.FALSE:
		n.Literal = LiteralBool
	case token.NULL:
		n.Literal = LiteralNull
	default:
		return nil, fmt.Errorf("unsupported literal %s", v.Kind)
	}
	return n, nil
}

func labelName(l ast.Label) (string, error) {
	switch v := l.(type) {
	case *ast.Ident:
		return v.Name, nil
	case *ast.BasicLit:
		return v.Value, nil
	default:
		return "", fmt.Errorf("unsupported selector %T", l)
	}
}
