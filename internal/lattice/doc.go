// Package lattice provides the algebra the constraint solver works over.
//
// A Lattice is a finite complete partial order with join and meet. Finite
// builds one from a Hasse diagram and checks that it really is a lattice:
// the order is acyclic, it has a unique top and bottom, and every pair of
// elements has a unique least upper bound and greatest lower bound.
//
// Terms are the placeholders constraints are written over:
//   - Variable: the settable term of one component
//   - Constant: a fixed lattice element
//   - Meet: the greatest lower bound of a list of terms
//
// Every term carries an effective flag. Ineffective terms take no part in
// resolution and make any inequality that mentions them vacuously true.
package lattice
