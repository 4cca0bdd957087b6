package ir

// FixedPoint selects which solution of the inequality system is computed.
type FixedPoint string

const (
	FixedPointLeast    FixedPoint = "least"
	FixedPointGreatest FixedPoint = "greatest"
)

// DefaultSolverName is the registry name used when a config leaves Name empty.
const DefaultSolverName = "constraint"

// SolverConfig configures a constraint solver for one model.
type SolverConfig struct {
	Name                  string         `json:"name"`
	ActorConstraint       ConstraintType `json:"actor_constraint"`
	CompositeConstraint   ConstraintType `json:"composite_constraint"`
	FSMConstraint         ConstraintType `json:"fsm_constraint"`
	ExpressionConstraint  ConstraintType `json:"expression_constraint"`
	FixedPoint            FixedPoint     `json:"fixed_point"`
	UseDefaultConstraints bool           `json:"use_default_constraints"`
	Annotations           bool           `json:"annotations"`
	SourceElement         string         `json:"source_element,omitempty"` // forced output of Source/Const actors
}

// DefaultSolverConfig returns the configuration used when a model has no solver block.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Name:                  DefaultSolverName,
		ActorConstraint:       ConstraintSinkEqualsGreater,
		CompositeConstraint:   ConstraintSinkEqualsGreater,
		FSMConstraint:         ConstraintSinkEqualsGreater,
		ExpressionConstraint:  ConstraintSinkEqualsGreater,
		FixedPoint:            FixedPointLeast,
		UseDefaultConstraints: true,
		Annotations:           true,
	}
}
