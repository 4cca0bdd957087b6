package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/propsolve/internal/ir"
)

// CompileSolver parses a solver block. Absent fields keep the values of
// ir.DefaultSolverConfig, and an absent block yields the defaults.
//
//	solver: {
//		name:                  "constraint"
//		actor_constraint:      "SINK_EQUALS_GREATER"
//		composite_constraint:  "SRC_EQUALS_MEET"
//		fixed_point:           "least"
//		use_default_constraints: true
//		annotations:           true
//		source_element:        "Int"
//	}
func CompileSolver(v cue.Value) (ir.SolverConfig, error) {
	cfg := ir.DefaultSolverConfig()
	if !v.Exists() {
		return cfg, nil
	}
	if err := v.Err(); err != nil {
		return cfg, formatCUEError(err)
	}

	name, err := optionalString(v, "name")
	if err != nil {
		return cfg, err
	}
	if name != "" {
		cfg.Name = name
	}

	disciplines := []struct {
		path string
		dst  *ir.ConstraintType
	}{
		{"actor_constraint", &cfg.ActorConstraint},
		{"composite_constraint", &cfg.CompositeConstraint},
		{"fsm_constraint", &cfg.FSMConstraint},
		{"expression_constraint", &cfg.ExpressionConstraint},
	}
	for _, d := range disciplines {
		s, err := optionalString(v, d.path)
		if err != nil {
			return cfg, err
		}
		if s == "" {
			continue
		}
		ct, err := ir.ParseConstraintType(s)
		if err != nil {
			return cfg, &CompileError{
				Field:   "solver." + d.path,
				Message: err.Error(),
				Pos:     v.LookupPath(cue.ParsePath(d.path)).Pos(),
			}
		}
		*d.dst = ct
	}

	fp, err := optionalString(v, "fixed_point")
	if err != nil {
		return cfg, err
	}
	if fp != "" {
		cfg.FixedPoint = ir.FixedPoint(fp)
	}

	for _, b := range []struct {
		path string
		dst  *bool
	}{
		{"use_default_constraints", &cfg.UseDefaultConstraints},
		{"annotations", &cfg.Annotations},
	} {
		bv := v.LookupPath(cue.ParsePath(b.path))
		if !bv.Exists() {
			continue
		}
		if *b.dst, err = bv.Bool(); err != nil {
			return cfg, formatCUEError(err)
		}
	}

	if cfg.SourceElement, err = optionalString(v, "source_element"); err != nil {
		return cfg, err
	}
	return cfg, nil
}
