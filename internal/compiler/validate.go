package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Model errors (E101-E109)
	ErrRootNotComposite  = "E101" // model root must be a composite actor
	ErrEmptyName         = "E102" // actor, port or attribute without a name
	ErrDuplicateName     = "E103" // duplicate name within one scope
	ErrInvalidEnum       = "E104" // invalid kind, direction, class or visibility
	ErrInvalidConnection = "E105" // connection endpoint does not resolve
	ErrInvalidTransition = "E106" // transition references an unknown state
	ErrInvalidExpression = "E107" // expression, guard, action or annotation does not parse
	ErrMisplacedContent  = "E108" // children on a non-composite, states on a non-FSM
	ErrInvalidInitial    = "E109" // FSM without exactly one initial state

	// Lattice errors (E110-E119)
	ErrLatticeNoElements  = "E110" // at least one element required
	ErrLatticeDuplicate   = "E111" // duplicate element name
	ErrLatticeUnknownRef  = "E112" // order or literal references an unknown element
	ErrLatticeStructure   = "E113" // cycle, missing top/bottom, or missing bounds
	ErrLatticeLiteralKind = "E114" // unknown literal kind

	// Solver and cross-reference errors (E120-E129)
	ErrInvalidFixedPoint   = "E120" // fixed point must be least or greatest
	ErrUnknownElement      = "E121" // property or source element not in the lattice
	ErrInvalidSolverName   = "E122" // empty solver name
	ErrInvalidConstraintTy = "E123" // constraint type out of range
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports Model, LatticeSpec, SolverConfig and Document.
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *ir.Model:
		return validateModel(x)
	case ir.Model:
		return validateModel(&x)
	case *ir.LatticeSpec:
		return validateLattice(x)
	case ir.LatticeSpec:
		return validateLattice(&x)
	case *ir.SolverConfig:
		return validateSolver(x)
	case ir.SolverConfig:
		return validateSolver(&x)
	case *Document:
		return validateDocument(x)
	case Document:
		return validateDocument(&x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// AsError aggregates validation errors into one error, or nil when errs is
// empty.
func AsError(errs []ValidationError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, e)
	}
	if result != nil {
		result.ErrorFormat = formatValidationErrors
	}
	return result.ErrorOrNil()
}

func formatValidationErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, 0, len(errs)+1)
	lines = append(lines, fmt.Sprintf("%d validation errors:", len(errs)))
	for _, err := range errs {
		lines = append(lines, "  "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// validateDocument validates each part and the references between them.
func validateDocument(doc *Document) []ValidationError {
	errs := validateModel(&doc.Model)
	latErrs := validateLattice(&doc.Lattice)
	errs = append(errs, latErrs...)
	errs = append(errs, validateSolver(&doc.Solver)...)
	if len(latErrs) > 0 {
		return errs
	}

	lat, err := lattice.NewFinite(doc.Lattice)
	if err != nil {
		return errs
	}
	walkActors(&doc.Model.Root, doc.Model.Root.Name, func(a *ir.Actor, path string) {
		for _, p := range a.Ports {
			if p.Property == "" {
				continue
			}
			if _, ok := lat.Element(p.Property); !ok {
				errs = append(errs, ValidationError{
					Field:   path + ".ports." + p.Name + ".property",
					Message: fmt.Sprintf("unknown element %q in lattice %s", p.Property, lat.Name()),
					Code:    ErrUnknownElement,
				})
			}
		}
	})
	if doc.Solver.SourceElement != "" {
		if _, ok := lat.Element(doc.Solver.SourceElement); !ok {
			errs = append(errs, ValidationError{
				Field:   "solver.source_element",
				Message: fmt.Sprintf("unknown element %q in lattice %s", doc.Solver.SourceElement, lat.Name()),
				Code:    ErrUnknownElement,
			})
		}
	}
	return errs
}

// validateModel validates the actor tree of a model.
func validateModel(m *ir.Model) []ValidationError {
	var errs []ValidationError

	// E101: root must be composite
	if m.Root.Kind != ir.ActorComposite {
		errs = append(errs, ValidationError{
			Field:   "model.kind",
			Message: fmt.Sprintf("model root must be composite, got %q", m.Root.Kind),
			Code:    ErrRootNotComposite,
		})
	}
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "model.name",
			Message: "model name is required",
			Code:    ErrEmptyName,
		})
	}

	walkActors(&m.Root, m.Root.Name, func(a *ir.Actor, path string) {
		errs = append(errs, validateActor(a, path)...)
	})
	return errs
}

// walkActors visits an actor and its descendants in declaration order.
func walkActors(a *ir.Actor, path string, fn func(*ir.Actor, string)) {
	fn(a, path)
	for i := range a.Actors {
		walkActors(&a.Actors[i], path+"."+a.Actors[i].Name, fn)
	}
}

func validateActor(a *ir.Actor, path string) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: path + field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if strings.TrimSpace(a.Name) == "" {
		add("", ErrEmptyName, "actor name is required")
	}
	if !ir.ValidActorKinds[a.Kind] {
		add(".kind", ErrInvalidEnum, "invalid actor kind %q, must be \"atomic\", \"composite\" or \"fsm\"", a.Kind)
	}

	// Ports and attributes share the actor scope.
	names := make(map[string]bool)
	claim := func(field, name string) {
		if strings.TrimSpace(name) == "" {
			add(field, ErrEmptyName, "name is required")
			return
		}
		if names[name] {
			add(field, ErrDuplicateName, "duplicate name %q", name)
		}
		names[name] = true
	}
	for _, p := range a.Ports {
		claim(".ports."+p.Name, p.Name)
		if p.Direction != ir.DirInput && p.Direction != ir.DirOutput {
			add(".ports."+p.Name+".direction", ErrInvalidEnum,
				"invalid direction %q, must be \"input\" or \"output\"", p.Direction)
		}
	}
	for _, attr := range a.Attributes {
		field := ".attributes." + attr.Name
		claim(field, attr.Name)
		if !ir.ValidAttributeClasses[attr.Class] {
			add(field+".class", ErrInvalidEnum, "invalid attribute class %q", attr.Class)
		}
		if !isValidVisibility(attr.Visibility) {
			add(field+".visibility", ErrInvalidEnum, "invalid visibility %q", attr.Visibility)
		}
		if strings.TrimSpace(attr.Expression) != "" {
			if _, err := expr.Parse(attr.Expression); err != nil {
				add(field+".expression", ErrInvalidExpression, "%v", err)
			}
		}
	}
	for i, ann := range a.Annotations {
		if _, err := expr.ParseAnnotation(ann); err != nil {
			add(fmt.Sprintf(".annotations[%d]", i), ErrInvalidExpression, "%v", err)
		}
	}

	// E108: kind-specific content
	if a.Kind != ir.ActorComposite && (len(a.Actors) > 0 || len(a.Connections) > 0) {
		add(".actors", ErrMisplacedContent, "only composite actors may contain actors or connections")
	}
	if a.Kind != ir.ActorFSM && (len(a.States) > 0 || len(a.Transitions) > 0) {
		add(".states", ErrMisplacedContent, "only fsm actors may contain states or transitions")
	}

	switch a.Kind {
	case ir.ActorComposite:
		errs = append(errs, validateComposite(a, path)...)
	case ir.ActorFSM:
		errs = append(errs, validateMachine(a, path)...)
	}
	return errs
}

func validateComposite(a *ir.Actor, path string) []ValidationError {
	var errs []ValidationError
	children := make(map[string]bool)
	for _, child := range a.Actors {
		if children[child.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".actors." + child.Name,
				Message: fmt.Sprintf("duplicate actor name %q", child.Name),
				Code:    ErrDuplicateName,
			})
		}
		children[child.Name] = true
	}

	for i, conn := range a.Connections {
		for _, end := range []string{conn.From, conn.To} {
			if msg := checkEndpoint(a, end); msg != "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.connections[%d]", path, i),
					Message: msg,
					Code:    ErrInvalidConnection,
				})
			}
		}
	}
	return errs
}

// checkEndpoint resolves "actor.port" against the children and "port"
// against the composite's own ports. It returns "" when the endpoint exists.
func checkEndpoint(a *ir.Actor, endpoint string) string {
	if actorName, portName, ok := strings.Cut(endpoint, "."); ok {
		child, found := a.Child(actorName)
		if !found {
			return fmt.Sprintf("connection references unknown actor %q", actorName)
		}
		if _, found := child.Port(portName); !found {
			return fmt.Sprintf("connection references unknown port %q", endpoint)
		}
		return ""
	}
	if _, found := a.Port(endpoint); !found {
		return fmt.Sprintf("connection references unknown port %q", endpoint)
	}
	return ""
}

func validateMachine(a *ir.Actor, path string) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: path + field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	states := make(map[string]bool)
	initial := 0
	for _, s := range a.States {
		if states[s.Name] {
			add(".states."+s.Name, ErrDuplicateName, "duplicate state name %q", s.Name)
		}
		states[s.Name] = true
		if s.Initial {
			initial++
		}
	}
	if len(a.States) > 0 && initial != 1 {
		add(".states", ErrInvalidInitial, "fsm must have exactly one initial state, found %d", initial)
	}

	transitions := make(map[string]bool)
	for i, t := range a.Transitions {
		field := fmt.Sprintf(".transitions[%d]", i)
		if t.Name != "" {
			field = ".transitions." + t.Name
			if transitions[t.Name] {
				add(field, ErrDuplicateName, "duplicate transition name %q", t.Name)
			}
			transitions[t.Name] = true
		}
		if !states[t.From] {
			add(field+".from", ErrInvalidTransition, "unknown source state %q", t.From)
		}
		if !states[t.To] {
			add(field+".to", ErrInvalidTransition, "unknown destination state %q", t.To)
		}
		if t.Guard != "" {
			if _, err := expr.Parse(t.Guard); err != nil {
				add(field+".guard", ErrInvalidExpression, "%v", err)
			}
		}
		for j, as := range append(append([]ir.Assignment(nil), t.OutputActions...), t.SetActions...) {
			if _, err := expr.Parse(as.Expression); err != nil {
				add(fmt.Sprintf("%s.actions[%d]", field, j), ErrInvalidExpression, "%v", err)
			}
		}
	}
	return errs
}

// validateLattice checks names and references without building the
// lattice, then reports structural problems found by lattice.NewFinite.
func validateLattice(spec *ir.LatticeSpec) []ValidationError {
	var errs []ValidationError

	// E110: at least one element
	if len(spec.Elements) == 0 {
		return []ValidationError{{
			Field:   "lattice.elements",
			Message: "at least one element is required",
			Code:    ErrLatticeNoElements,
		}}
	}

	known := make(map[string]bool)
	for i, name := range spec.Elements {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("lattice.elements[%d]", i),
				Message: "element name is required",
				Code:    ErrEmptyName,
			})
			continue
		}
		if known[key] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("lattice.elements[%d]", i),
				Message: fmt.Sprintf("duplicate element %q", name),
				Code:    ErrLatticeDuplicate,
			})
		}
		known[key] = true
	}

	for i, c := range spec.Order {
		for _, name := range []string{c.Lesser, c.Greater} {
			if !known[strings.ToLower(name)] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("lattice.order[%d]", i),
					Message: fmt.Sprintf("order references unknown element %q", name),
					Code:    ErrLatticeUnknownRef,
				})
			}
		}
	}

	for _, kind := range slices.Sorted(maps.Keys(spec.Literals)) {
		name := spec.Literals[kind]
		if !ir.ValidLiteralKinds[kind] {
			errs = append(errs, ValidationError{
				Field:   "lattice.literals." + kind,
				Message: fmt.Sprintf("unknown literal kind %q", kind),
				Code:    ErrLatticeLiteralKind,
			})
		}
		if !known[strings.ToLower(name)] {
			errs = append(errs, ValidationError{
				Field:   "lattice.literals." + kind,
				Message: fmt.Sprintf("literal %q maps to unknown element %q", kind, name),
				Code:    ErrLatticeUnknownRef,
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	if _, err := lattice.NewFinite(*spec); err != nil {
		errs = append(errs, ValidationError{
			Field:   "lattice",
			Message: err.Error(),
			Code:    ErrLatticeStructure,
		})
	}
	return errs
}

func validateSolver(cfg *ir.SolverConfig) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "solver.name",
			Message: "solver name is required",
			Code:    ErrInvalidSolverName,
		})
	}
	if cfg.FixedPoint != ir.FixedPointLeast && cfg.FixedPoint != ir.FixedPointGreatest {
		errs = append(errs, ValidationError{
			Field:   "solver.fixed_point",
			Message: fmt.Sprintf("invalid fixed point %q, must be \"least\" or \"greatest\"", cfg.FixedPoint),
			Code:    ErrInvalidFixedPoint,
		})
	}
	for _, d := range []struct {
		field string
		ct    ir.ConstraintType
	}{
		{"solver.actor_constraint", cfg.ActorConstraint},
		{"solver.composite_constraint", cfg.CompositeConstraint},
		{"solver.fsm_constraint", cfg.FSMConstraint},
		{"solver.expression_constraint", cfg.ExpressionConstraint},
	} {
		field, ct := d.field, d.ct
		if ct < ir.ConstraintNone || ct > ir.ConstraintSrcEqualsGreater {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid constraint type %s", ct),
				Code:    ErrInvalidConstraintTy,
			})
		}
	}
	return errs
}

func isValidVisibility(v ir.Visibility) bool {
	switch v {
	case "", ir.VisibilityFull, ir.VisibilityExpert, ir.VisibilityNotEditable, ir.VisibilityNone:
		return true
	}
	return false
}
