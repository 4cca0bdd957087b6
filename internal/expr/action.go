package expr

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
)

// Assignment is one "destination = expression" entry of an action list.
type Assignment struct {
	Destination string
	Expression  string
}

// SplitAssignments splits an action list such as "y = x + 1; z = 2" into
// assignments. Semicolons inside string literals do not split. Only the
// destination is checked here; expressions are parsed later by Parse.
func SplitAssignments(src string) ([]Assignment, error) {
	var out []Assignment
	for _, part := range splitOutsideQuotes(src, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i := assignmentIndex(part)
		if i < 0 {
			return nil, &ParseError{Source: part, Err: fmt.Errorf("missing '=' in assignment")}
		}
		dest := strings.TrimSpace(part[:i])
		rhs := strings.TrimSpace(part[i+1:])
		if !isIdentifier(dest) {
			return nil, &ParseError{Source: part, Err: fmt.Errorf("invalid assignment destination %q", dest)}
		}
		if rhs == "" {
			return nil, &ParseError{Source: part, Err: fmt.Errorf("empty expression for %q", dest)}
		}
		out = append(out, Assignment{Destination: dest, Expression: rhs})
	}
	return out, nil
}

// assignmentIndex returns the index of the first bare '=' that is not part
// of a comparison operator, or -1.
func assignmentIndex(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' && (i == 0 || s[i-1] != '\\') {
			inQuote = !inQuote
		}
		if inQuote || c != '=' {
			continue
		}
		if i > 0 && strings.ContainsRune("=!<>", rune(s[i-1])) {
			continue
		}
		if i+1 < len(s) && (s[i+1] == '=' || s[i+1] == '~') {
			i++
			continue
		}
		return i
	}
	return -1
}

func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"' && (i == 0 || s[i-1] != '\\'):
			inQuote = !inQuote
		case s[i] == sep && !inQuote:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	x, err := parser.ParseExpr("destination", s)
	if err != nil {
		return false
	}
	_, ok := x.(*ast.Ident)
	return ok
}

// AnnotationOp is the relation asserted by a manual annotation.
type AnnotationOp string

const (
	AnnotationAtLeast AnnotationOp = ">="
	AnnotationAtMost  AnnotationOp = "<="
	AnnotationEquals  AnnotationOp = "=="
)

// Annotation is a parsed manual constraint "left op right". Each side names
// either a propertyable component or a lattice element.
type Annotation struct {
	Left  string
	Op    AnnotationOp
	Right string
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s %s %s", a.Left, a.Op, a.Right)
}

// ParseAnnotation parses a manual annotation such as "output >= Int".
func ParseAnnotation(src string) (Annotation, error) {
	x, err := parser.ParseExpr("annotation", src)
	if err != nil {
		return Annotation{}, &ParseError{Source: src, Err: err}
	}
	bin, ok := x.(*ast.BinaryExpr)
	if !ok {
		return Annotation{}, &ParseError{Source: src, Err: fmt.Errorf("annotation must be a comparison")}
	}

	var op AnnotationOp
	switch bin.Op {
	case token.GEQ:
		op = AnnotationAtLeast
	case token.LEQ:
		op = AnnotationAtMost
	case token.EQL:
		op = AnnotationEquals
	default:
		return Annotation{}, &ParseError{Source: src, Err: fmt.Errorf("unsupported annotation operator %s", bin.Op)}
	}

	left, err := annotationOperand(bin.X)
	if err != nil {
		return Annotation{}, &ParseError{Source: src, Err: err}
	}
	right, err := annotationOperand(bin.Y)
	if err != nil {
		return Annotation{}, &ParseError{Source: src, Err: err}
	}
	return Annotation{Left: left, Op: op, Right: right}, nil
}

func annotationOperand(x ast.Expr) (string, error) {
	switch v := x.(type) {
	case *ast.Ident:
		return v.Name, nil
	case *ast.BasicLit:
		if v.Kind == token.STRING {
			return strings.Trim(v.Value, `"`), nil
		}
	}
	return "", fmt.Errorf("annotation operands must be names, got %T", x)
}
