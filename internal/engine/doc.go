// Package engine generates property constraints for a component graph.
//
// Every actor and every parse tree node gets a Helper. Helpers form a tree
// that mirrors the graph hierarchy: composite helpers own the helpers of
// their children, and every actor helper owns the helpers of the nodes of
// its parsed attribute expressions. A solver drives one pass as:
//
//  1. Reinitialize: clear previous results and constraint lists
//  2. AddDefaultConstraints: library-supplied relations of atomic actors
//  3. SetConnectionConstraintType: pick each helper's discipline by Kind
//  4. ConstraintList: collect the union of own and sub-helper inequalities
//
// Helpers live in an Arena indexed by graph.ID. Per-pass bookkeeping
// (statistics, annotated terms, mode flags) lives on a Context passed into
// every call.
//
// # Invariants
//
//   - SetSameAs records exactly two inequalities
//   - ConstraintList rebuilds from scratch; repeated calls in one pass never
//     duplicate constraints
//   - A meet discipline with an empty target list emits nothing
//   - A term made ineffective stays ineffective until the next Reinitialize
package engine
