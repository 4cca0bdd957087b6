package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

func (h *Helper) add(q *Inequality) {
	q.Helper = h.id
	if h.collecting {
		h.generated = append(h.generated, q)
		return
	}
	h.fixed = append(h.fixed, q)
}

// SetAtLeast records greater >= lesser.
func (h *Helper) SetAtLeast(ctx *Context, greater, lesser lattice.Term) {
	h.add(&Inequality{Lesser: lesser, Greater: greater, IsBase: true})
}

// SetAtMost records lesser <= greater.
func (h *Helper) SetAtMost(ctx *Context, lesser, greater lattice.Term) {
	h.SetAtLeast(ctx, greater, lesser)
}

// SetSameAs records both directions between a and b.
func (h *Helper) SetSameAs(ctx *Context, a, b lattice.Term) {
	h.SetAtLeast(ctx, a, b)
	h.SetAtLeast(ctx, b, a)
}

// SetAtLeastByDefault records greater >= lesser as a default constraint.
// Defaults never constrain an annotated term.
func (h *Helper) SetAtLeastByDefault(ctx *Context, greater, lesser lattice.Term) {
	if ctx.isAnnotatedTerm(greater) {
		ctx.Logger.Debug("default constraint dropped for annotated term",
			zap.String("greater", greater.String()),
			zap.String("lesser", lesser.String()))
		return
	}
	h.SetAtLeast(ctx, greater, lesser)
	ctx.IncrementStats(StatDefaultConstraints, 1)
	ctx.IncrementStats(h.defaultStat(), 1)
}

// SetAtMostByDefault records lesser <= greater as a default constraint.
func (h *Helper) SetAtMostByDefault(ctx *Context, lesser, greater lattice.Term) {
	h.SetAtLeastByDefault(ctx, greater, lesser)
}

// SetSameAsByDefault records both directions as default constraints.
func (h *Helper) SetSameAsByDefault(ctx *Context, a, b lattice.Term) {
	h.SetAtLeastByDefault(ctx, a, b)
	h.SetAtLeastByDefault(ctx, b, a)
}

// SetAtLeastManualAnnotation records a user-written greater >= lesser.
func (h *Helper) SetAtLeastManualAnnotation(ctx *Context, greater, lesser lattice.Term) {
	h.SetAtLeast(ctx, greater, lesser)
	ctx.AddAnnotated(greater)
	ctx.AddAnnotated(lesser)
	ctx.IncrementStats(StatManualAnnotations, 1)
}

// SetAtMostManualAnnotation records a user-written lesser <= greater.
func (h *Helper) SetAtMostManualAnnotation(ctx *Context, lesser, greater lattice.Term) {
	h.SetAtLeastManualAnnotation(ctx, greater, lesser)
}

// SetSameAsManualAnnotation records a user-written equality.
func (h *Helper) SetSameAsManualAnnotation(ctx *Context, a, b lattice.Term) {
	h.SetAtLeastManualAnnotation(ctx, a, b)
	h.SetAtLeastManualAnnotation(ctx, b, a)
}

func (h *Helper) defaultStat() string {
	switch h.kind {
	case graph.KindAtomic:
		return StatAtomicDefaultConstraints
	case graph.KindExprNode:
		return StatExprDefaultConstraints
	default:
		return StatCompositeDefaultConstraints
	}
}

// constraintObject relates a component to its targets under ct.
func (h *Helper) constraintObject(ctx *Context, ct ir.ConstraintType, id graph.ID, targets []graph.ID) {
	term := ctx.Term(id)
	switch {
	case ct == ir.ConstraintNone:
	case ct.UsesMeet():
		if len(targets) == 0 {
			return
		}
		args := make([]lattice.Term, len(targets))
		for i, t := range targets {
			args[i] = ctx.Term(t)
		}
		h.SetSameAsByDefault(ctx, term, lattice.NewMeet(ctx.Lattice, args))
	case ct.IsEquals():
		for _, t := range targets {
			h.SetSameAsByDefault(ctx, term, ctx.Term(t))
		}
	default:
		for _, t := range targets {
			target := ctx.Term(t)
			if ctx.Graph.Component(t).Kind == graph.KindExprNode && ct != ir.ConstraintSinkEqualsGreater {
				h.SetAtLeastByDefault(ctx, target, term)
				continue
			}
			h.SetAtLeastByDefault(ctx, term, target)
		}
	}
}

// AddDefaultConstraints relates the ports of atomic actors under ct.
// Source disciplines relate each input to all outputs; sink disciplines
// relate each output to all inputs. Composite actors recurse into their
// children.
func (h *Helper) AddDefaultConstraints(ctx *Context, ct ir.ConstraintType) error {
	switch h.kind {
	case graph.KindAtomic:
		if !h.useDefaults {
			return nil
		}
		if ad, ok := adapterFor(ctx, h.id); ok && ad.noDefaults {
			return nil
		}
		inputs, outputs := h.splitPorts(ctx)
		if ct.ConstrainsSource() {
			for _, in := range inputs {
				h.constraintObject(ctx, ct, in, outputs)
			}
		} else {
			for _, out := range outputs {
				h.constraintObject(ctx, ct, out, inputs)
			}
		}
		return nil
	case graph.KindComposite:
		for _, child := range ctx.Graph.Component(h.id).Actor.Children {
			ch, err := ctx.Arena.Helper(child)
			if err != nil {
				return err
			}
			if err := ch.AddDefaultConstraints(ctx, ct); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (h *Helper) splitPorts(ctx *Context) (inputs, outputs []graph.ID) {
	for _, pid := range ctx.Graph.Component(h.id).Actor.Ports {
		if ctx.Graph.Component(pid).Port.IsInput() {
			inputs = append(inputs, pid)
		} else {
			outputs = append(outputs, pid)
		}
	}
	return inputs, outputs
}

// SetConnectionConstraintType chooses the interconnect discipline of every
// helper in the tree from d.
func (h *Helper) SetConnectionConstraintType(ctx *Context, d Disciplines) error {
	switch h.kind {
	case graph.KindAtomic:
		h.interconnect = d.Actor
	case graph.KindComposite:
		h.interconnect = d.Composite
	case graph.KindFSM:
		h.interconnect = d.FSM
	case graph.KindExprNode:
		h.interconnect = d.Expression
	default:
		return fmt.Errorf("no helper behavior for %s", h.kind)
	}
	subs, err := h.SubHelpers(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := sub.SetConnectionConstraintType(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// ConstraintList rebuilds the helper's generated constraints and returns
// them together with its fixed constraints and those of all sub-helpers.
func (h *Helper) ConstraintList(ctx *Context) ([]*Inequality, error) {
	h.generated, h.sub = nil, nil
	h.collecting = true
	err := h.generate(ctx)
	h.collecting = false
	if err != nil {
		return nil, err
	}

	subs, err := h.SubHelpers(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		list, err := sub.ConstraintList(ctx)
		if err != nil {
			return nil, err
		}
		h.sub = append(h.sub, list...)
	}

	out := h.OwnConstraints()
	return append(out, h.sub...), nil
}

func (h *Helper) generate(ctx *Context) error {
	switch h.kind {
	case graph.KindAtomic:
		return h.actorConstraints(ctx)
	case graph.KindComposite:
		if err := h.actorConstraints(ctx); err != nil {
			return err
		}
		h.connectionConstraints(ctx)
		return nil
	case graph.KindFSM:
		return h.fsmConstraints(ctx)
	case graph.KindExprNode:
		h.exprConstraints(ctx)
		return nil
	default:
		return fmt.Errorf("no helper behavior for %s", h.kind)
	}
}

// actorConstraints runs the adapter hooks and relates every propertyable
// attribute to the root of its parse tree.
func (h *Helper) actorConstraints(ctx *Context) error {
	ad, hasAdapter := adapterFor(ctx, h.id)
	if hasAdapter && ad.setEffectiveTerms != nil {
		ad.setEffectiveTerms(h, ctx)
	}
	if hasAdapter && ad.constraints != nil {
		ad.constraints(h, ctx)
	}
	return h.constraintAttributes(ctx)
}

func (h *Helper) constraintAttributes(ctx *Context) error {
	for _, attr := range h.propertyableAttributes(ctx) {
		root, err := parseTree(ctx, attr)
		if err != nil {
			return err
		}
		if root == graph.NoID {
			continue
		}
		h.constraintObject(ctx, ctx.Disciplines.Expression, attr, []graph.ID{root})
	}
	return nil
}
