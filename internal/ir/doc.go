// Package ir provides the intermediate representation consumed by propsolve.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Models, lattices and solver settings are compiled from CUE into these types
//   - Declaration order is preserved everywhere (slices, never maps, for ordered data)
//   - All JSON tags use snake_case
//   - No float types; canonical JSON rejects them
package ir
