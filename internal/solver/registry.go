package solver

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// GreatestSolverName is the built-in solver computing the greatest fixed point.
const GreatestSolverName = "constraint-greatest"

// Constructor builds a solver for a lattice and configuration.
type Constructor func(lat lattice.Lattice, cfg ir.SolverConfig, opts ...Option) *Solver

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register adds a solver constructor. It is meant to be called from init
// functions and panics on an empty or duplicate name.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" || ctor == nil {
		panic("solver: Register with empty name or nil constructor")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("solver: Register called twice for %q", name))
	}
	registry[name] = ctor
}

// Lookup returns the constructor registered under name.
func Lookup(name string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[name]
	return ctor, ok
}

// Names returns the registered solver names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// NameFor picks the registry name for a configuration: its explicit name,
// or the built-in solver matching its fixed point.
func NameFor(cfg ir.SolverConfig) string {
	switch {
	case cfg.Name != "":
		return cfg.Name
	case cfg.FixedPoint == ir.FixedPointGreatest:
		return GreatestSolverName
	default:
		return ir.DefaultSolverName
	}
}

func init() {
	Register(ir.DefaultSolverName, func(lat lattice.Lattice, cfg ir.SolverConfig, opts ...Option) *Solver {
		cfg.FixedPoint = ir.FixedPointLeast
		return New(ir.DefaultSolverName, lat, cfg, opts...)
	})
	Register(GreatestSolverName, func(lat lattice.Lattice, cfg ir.SolverConfig, opts ...Option) *Solver {
		cfg.FixedPoint = ir.FixedPointGreatest
		return New(GreatestSolverName, lat, cfg, opts...)
	})
}
