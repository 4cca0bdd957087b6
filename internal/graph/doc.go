// Package graph is the component arena the constraint engine walks.
//
// Build flattens an ir.Model into Components addressed by stable IDs.
// Every component carries an explicit Kind and a kind-specific payload;
// callers switch on Kind instead of probing payloads.
//
// Expression trees are parsed on first request (ParseTree) and their nodes
// are appended to the arena, so node IDs are stable for the lifetime of the
// Graph and repeated requests return the same tree.
package graph
