// Package solver resolves the constraints produced by the engine.
//
// A Solver is bound to one lattice and one configuration. Resolve drives
// the engine's helper tree through a pass and iterates the inequalities to
// a fixed point: the least solution starts every settable term at the
// lattice bottom and raises the greater side of each inequality with join;
// the greatest solution starts at top and lowers the lesser side with meet.
// Inequalities whose adjusted side is not settable are only checked.
//
// Solvers are registered by name at init time; there is no reflective
// discovery. The Analyzer is the driver used by the CLI and the harness: it
// compiles the graph, picks a solver, runs one mode (annotate, train, test,
// manual annotate, clear), records the pass, and always resets the solver.
package solver
