package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/propsolve/internal/ir"
)

// CompileLattice parses a CUE value into a LatticeSpec:
//
//	lattice: {
//		name:     "types"
//		elements: ["Unknown", "Int", "Double", "General"]
//		order:    ["Unknown < Int", "Int < Double", "Double < General"]
//		literals: { int: "Int", float: "Double" }
//	}
//
// Order entries are Hasse-diagram covers, written "lesser < greater" or as
// {lesser, greater} structs.
func CompileLattice(v cue.Value) (*ir.LatticeSpec, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "lattice", Message: "lattice is required"}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.LatticeSpec{}

	var err error
	if spec.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if spec.Elements, err = optionalStrings(v, "elements"); err != nil {
		return nil, err
	}
	if len(spec.Elements) == 0 {
		return nil, &CompileError{
			Field:   "lattice.elements",
			Message: "at least one element is required",
			Pos:     v.Pos(),
		}
	}

	orderVal := v.LookupPath(cue.ParsePath("order"))
	if orderVal.Exists() {
		iter, err := orderVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			c, err := parseCover(iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Order = append(spec.Order, c)
		}
	}

	litVal := v.LookupPath(cue.ParsePath("literals"))
	if litVal.Exists() {
		iter, err := litVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Literals = make(map[string]string)
		for iter.Next() {
			elem, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Literals[iter.Label()] = elem
		}
	}

	return spec, nil
}

func parseCover(v cue.Value) (ir.Cover, error) {
	if s, err := v.String(); err == nil {
		lesser, greater, ok := strings.Cut(s, "<")
		if !ok {
			return ir.Cover{}, &CompileError{
				Field:   "lattice.order",
				Message: fmt.Sprintf("order entry %q must have the form \"lesser < greater\"", s),
				Pos:     v.Pos(),
			}
		}
		return ir.Cover{Lesser: strings.TrimSpace(lesser), Greater: strings.TrimSpace(greater)}, nil
	}

	lesser, err := requiredString(v, "lesser", "lattice.order.lesser")
	if err != nil {
		return ir.Cover{}, err
	}
	greater, err := requiredString(v, "greater", "lattice.order.greater")
	if err != nil {
		return ir.Cover{}, err
	}
	return ir.Cover{Lesser: lesser, Greater: greater}, nil
}
