// Package expr turns attribute and action expressions into trees.
//
// Expressions use CUE expression syntax and are parsed with cue/parser.
// The resulting CUE AST is lowered into a small Node tree that the
// constraint helpers walk: literals, identifiers, unary and binary
// operators, calls, lists, selectors and index expressions. Parentheses
// are dropped during lowering.
//
// The package also splits FSM action lists ("y = x + 1; z = 2") and
// parses manual annotation constraints ("output >= Int").
package expr
