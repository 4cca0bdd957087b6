package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/propsolve/internal/ir"
)

// Document is one compiled analysis input: a model, the lattice its
// properties range over, and the solver configuration.
type Document struct {
	Model   ir.Model
	Lattice ir.LatticeSpec
	Solver  ir.SolverConfig
}

// Compile reads the top-level lattice, model and solver fields of a CUE
// value. The solver field is optional.
func Compile(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelVal := v.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, &CompileError{Field: "model", Message: "model is required", Pos: v.Pos()}
	}
	model, err := CompileModel(modelVal)
	if err != nil {
		return nil, err
	}

	latticeVal := v.LookupPath(cue.ParsePath("lattice"))
	if !latticeVal.Exists() {
		return nil, &CompileError{Field: "lattice", Message: "lattice is required", Pos: v.Pos()}
	}
	lat, err := CompileLattice(latticeVal)
	if err != nil {
		return nil, err
	}

	cfg, err := CompileSolver(v.LookupPath(cue.ParsePath("solver")))
	if err != nil {
		return nil, err
	}

	return &Document{Model: *model, Lattice: *lat, Solver: cfg}, nil
}
