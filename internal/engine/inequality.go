package engine

import (
	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/lattice"
)

// Inequality is the constraint Lesser <= Greater.
type Inequality struct {
	Lesser  lattice.Term
	Greater lattice.Term
	// IsBase marks inequalities produced directly by a helper.
	IsBase bool
	// Helper is the component whose helper produced the inequality.
	Helper graph.ID
}

// IsSatisfied checks the inequality against the current term values.
// Inequalities with an ineffective side hold vacuously, as do those whose
// lesser side is still unresolved.
func (q *Inequality) IsSatisfied(lat lattice.Lattice) bool {
	if !q.Lesser.IsEffective() || !q.Greater.IsEffective() {
		return true
	}
	lesser, ok := q.Lesser.Value()
	if !ok {
		return true
	}
	greater, ok := q.Greater.Value()
	if !ok {
		return false
	}
	return lat.Leq(lesser, greater)
}

func (q *Inequality) String() string {
	return q.Lesser.String() + " <= " + q.Greater.String()
}
