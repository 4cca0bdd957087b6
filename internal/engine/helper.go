package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// expressionActorClass is the actor class whose "expression" attribute is
// inferred.
const expressionActorClass = "Expression"

// Parameters that never carry a user-visible property.
var excludedParameters = map[string]bool{
	"firingCountLimit":        true,
	"NONE":                    true,
	"_hideName":               true,
	"_showName":               true,
	"conservativeAnalysis":    true,
	"directorClass":           true,
	"stateDependentCausality": true,
	"delayed":                 true,
	"displayWidth":            true,
}

// Helper generates the constraints of one actor or parse tree node. The
// behavior of a helper is selected by the Kind of its component.
type Helper struct {
	id           graph.ID
	kind         graph.Kind
	useDefaults  bool
	interconnect ir.ConstraintType

	// fixed holds constraints added outside ConstraintList (defaults and
	// annotations); generated is rebuilt by every ConstraintList call.
	fixed      []*Inequality
	generated  []*Inequality
	sub        []*Inequality
	collecting bool
}

func newHelper(id graph.ID, kind graph.Kind, useDefaults bool) *Helper {
	return &Helper{
		id:           id,
		kind:         kind,
		useDefaults:  useDefaults,
		interconnect: ir.ConstraintSinkEqualsGreater,
	}
}

// ID returns the component the helper wraps.
func (h *Helper) ID() graph.ID { return h.id }

// Kind returns the kind of the wrapped component.
func (h *Helper) Kind() graph.Kind { return h.kind }

// InterconnectType returns the discipline chosen by SetConnectionConstraintType.
func (h *Helper) InterconnectType() ir.ConstraintType { return h.interconnect }

// UsesDefaultConstraints reports whether AddDefaultConstraints applies.
func (h *Helper) UsesDefaultConstraints() bool { return h.useDefaults }

// OwnConstraints returns the constraints this helper produced itself.
func (h *Helper) OwnConstraints() []*Inequality {
	out := make([]*Inequality, 0, len(h.fixed)+len(h.generated))
	out = append(out, h.fixed...)
	return append(out, h.generated...)
}

// SubHelperConstraints returns the constraints collected from sub-helpers
// by the last ConstraintList call.
func (h *Helper) SubHelperConstraints() []*Inequality {
	return h.sub
}

// Propertyables returns the components whose properties this helper infers.
func (h *Helper) Propertyables(ctx *Context) []graph.ID {
	if h.kind == graph.KindExprNode {
		return []graph.ID{h.id}
	}
	out := append([]graph.ID(nil), ctx.Graph.Component(h.id).Actor.Ports...)
	return append(out, h.propertyableAttributes(ctx)...)
}

// propertyableAttributes returns the attributes of an actor whose value
// expression is inferred, including FSM guards.
func (h *Helper) propertyableAttributes(ctx *Context) []graph.ID {
	if h.kind == graph.KindExprNode {
		return nil
	}
	g := ctx.Graph
	actor := g.Component(h.id)
	var out []graph.ID
	for _, aid := range actor.Actor.Attributes {
		if isPropertyableAttribute(actor, g.Component(aid)) {
			out = append(out, aid)
		}
	}
	if h.kind == graph.KindFSM {
		for _, tid := range actor.Actor.Transitions {
			if guard := g.Component(tid).Transition.Guard; guard != graph.NoID {
				out = append(out, guard)
			}
		}
	}
	return out
}

func isPropertyableAttribute(actor, attr *graph.Component) bool {
	data := attr.Attribute
	switch data.Class {
	case ir.ClassStringAttribute:
		if strings.EqualFold(attr.Name, graph.GuardAttributeName) {
			return true
		}
		return strings.EqualFold(attr.Name, "expression") && actor.Actor.Class == expressionActorClass
	case ir.ClassPortParameter:
		return data.Visibility == ir.VisibilityFull
	case ir.ClassParameter, ir.ClassStringParameter:
		return data.Visibility == ir.VisibilityFull && !excludedParameters[attr.Name]
	default:
		return false
	}
}

// SubHelpers returns the helpers whose constraints this helper collects.
func (h *Helper) SubHelpers(ctx *Context) ([]*Helper, error) {
	switch h.kind {
	case graph.KindExprNode:
		return nil, nil
	case graph.KindAtomic:
		return h.exprHelpers(ctx, h.propertyableAttributes(ctx))
	case graph.KindComposite:
		var out []*Helper
		for _, child := range ctx.Graph.Component(h.id).Actor.Children {
			ch, err := ctx.Arena.Helper(child)
			if err != nil {
				return nil, err
			}
			out = append(out, ch)
		}
		exprs, err := h.exprHelpers(ctx, h.propertyableAttributes(ctx))
		if err != nil {
			return nil, err
		}
		return append(out, exprs...), nil
	case graph.KindFSM:
		owners := h.propertyableAttributes(ctx)
		for _, tid := range ctx.Graph.Component(h.id).Actor.Transitions {
			t := ctx.Graph.Component(tid).Transition
			owners = append(owners, t.OutputActions...)
			owners = append(owners, t.SetActions...)
		}
		return h.exprHelpers(ctx, owners)
	default:
		return nil, fmt.Errorf("no helper behavior for %s", h.kind)
	}
}

// exprHelpers returns the helpers of every node of the parse trees of
// owners, in pre-order. No expression helpers exist when the expression
// discipline is NONE.
func (h *Helper) exprHelpers(ctx *Context, owners []graph.ID) ([]*Helper, error) {
	if ctx.Disciplines.Expression == ir.ConstraintNone {
		return nil, nil
	}
	var out []*Helper
	for _, owner := range owners {
		root, err := parseTree(ctx, owner)
		if err != nil {
			return nil, err
		}
		if root == graph.NoID {
			continue
		}
		var visit func(graph.ID) error
		visit = func(id graph.ID) error {
			nh, err := ctx.Arena.Helper(id)
			if err != nil {
				return err
			}
			out = append(out, nh)
			for _, child := range ctx.Graph.Component(id).Expr.Children {
				if err := visit(child); err != nil {
					return err
				}
			}
			return nil
		}
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseTree(ctx *Context, owner graph.ID) (graph.ID, error) {
	root, err := ctx.Graph.ParseTree(owner)
	if err != nil {
		return graph.NoID, &RepresentationError{
			Component:  ctx.Graph.FullName(owner),
			Expression: ctx.Graph.Component(owner).ExpressionText(),
			Err:        err,
		}
	}
	return root, nil
}

// Reinitialize prepares the helper tree for a new pass. It detaches
// results, clears settable terms and constraint lists, and re-evaluates
// annotations.
func (h *Helper) Reinitialize(ctx *Context) error {
	for _, id := range h.Propertyables(ctx) {
		if ctx.Mode.Records() {
			if attr, ok := ctx.Arena.Attribute(id); ok {
				if e, ok := attr.Property(); ok {
					ctx.Arena.RecordPrevious(id, e)
				}
				ctx.Arena.Detach(id)
			}
		}
		term := ctx.Term(id)
		if term.IsSettable() {
			term.ClearValue()
		}
		term.ResetEffective()
	}

	h.fixed, h.generated, h.sub = nil, nil, nil

	if h.kind.IsActor() && ctx.evaluateAnnotations() {
		if err := h.evaluateAnnotations(ctx); err != nil {
			return err
		}
	}

	subs, err := h.SubHelpers(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := sub.Reinitialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SetEquals pins a component's term to e and records it as annotated.
func (h *Helper) SetEquals(ctx *Context, id graph.ID, e lattice.Element) {
	term := ctx.Term(id)
	term.Pin(e)
	ctx.AddAnnotated(term)
	ctx.IncrementStats(StatManualAnnotations, 1)
	ctx.Logger.Debug("pinned property",
		zap.String("component", ctx.Graph.FullName(id)),
		zap.String("property", e.Name()))
}

// evaluateAnnotations applies port properties and the actor's manual
// annotations.
func (h *Helper) evaluateAnnotations(ctx *Context) error {
	g := ctx.Graph
	actor := g.Component(h.id)
	for _, pid := range actor.Actor.Ports {
		name := g.Component(pid).Port.Property
		if name == "" {
			continue
		}
		e, ok := ctx.Lattice.Element(name)
		if !ok {
			return fmt.Errorf("annotate %s: unknown element %q in lattice %s", g.FullName(pid), name, ctx.Lattice.Name())
		}
		h.SetEquals(ctx, pid, e)
	}

	for _, src := range actor.Actor.Annotations {
		a, err := expr.ParseAnnotation(src)
		if err != nil {
			return &RepresentationError{Component: g.FullName(h.id), Expression: src, Err: err}
		}
		if err := h.applyAnnotation(ctx, a); err != nil {
			return fmt.Errorf("annotate %s: %w", g.FullName(h.id), err)
		}
	}
	return nil
}

// annotationSide is one operand of a manual annotation.
type annotationSide struct {
	id   graph.ID // NoID for a lattice element
	term lattice.Term
	elem lattice.Element
}

func (h *Helper) annotationSide(ctx *Context, name string) (annotationSide, error) {
	if id, ok := ctx.Graph.Lookup(h.id, name); ok {
		return annotationSide{id: id, term: ctx.Term(id)}, nil
	}
	if e, ok := ctx.Lattice.Element(name); ok {
		return annotationSide{id: graph.NoID, term: lattice.NewConstant(e), elem: e}, nil
	}
	return annotationSide{}, fmt.Errorf("%q is neither a port, an attribute nor an element of lattice %s", name, ctx.Lattice.Name())
}

func (h *Helper) applyAnnotation(ctx *Context, a expr.Annotation) error {
	left, err := h.annotationSide(ctx, a.Left)
	if err != nil {
		return err
	}
	right, err := h.annotationSide(ctx, a.Right)
	if err != nil {
		return err
	}
	if left.id == graph.NoID && right.id == graph.NoID {
		return fmt.Errorf("annotation %q constrains no component", a)
	}

	switch a.Op {
	case expr.AnnotationAtLeast:
		h.SetAtLeastManualAnnotation(ctx, left.term, right.term)
	case expr.AnnotationAtMost:
		h.SetAtMostManualAnnotation(ctx, left.term, right.term)
	case expr.AnnotationEquals:
		switch {
		case right.id == graph.NoID:
			h.SetEquals(ctx, left.id, right.elem)
		case left.id == graph.NoID:
			h.SetEquals(ctx, right.id, left.elem)
		default:
			h.SetSameAsManualAnnotation(ctx, left.term, right.term)
		}
	default:
		return fmt.Errorf("unsupported annotation operator %q", a.Op)
	}
	return nil
}
