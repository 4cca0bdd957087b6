package engine

import (
	"maps"
	"slices"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// adapter specializes the constraints of actors of one class.
type adapter struct {
	// noDefaults disables the generic port-to-port default constraints.
	noDefaults        bool
	setEffectiveTerms func(h *Helper, ctx *Context)
	constraints       func(h *Helper, ctx *Context)
}

var sourceAdapter = adapter{
	noDefaults:        true,
	setEffectiveTerms: sourceEffectiveTerms,
	constraints:       sourceConstraints,
}

// adapters is keyed by actor class.
var adapters = map[string]adapter{
	"Source":             sourceAdapter,
	"Const":              sourceAdapter,
	expressionActorClass: {noDefaults: true, constraints: expressionConstraints},
}

// AdapterClasses returns the actor classes with specialized constraints.
func AdapterClasses() []string {
	return slices.Sorted(maps.Keys(adapters))
}

func adapterFor(ctx *Context, id graph.ID) (adapter, bool) {
	ad, ok := adapters[ctx.Graph.Component(id).Actor.Class]
	return ad, ok
}

// sourceEffectiveTerms retires unconnected trigger inputs so they do not
// pull the output down.
func sourceEffectiveTerms(h *Helper, ctx *Context) {
	if h.interconnect != ir.ConstraintSinkEqualsGreater {
		return
	}
	inputs, _ := h.splitPorts(ctx)
	for _, in := range inputs {
		if !ctx.Graph.IsConnected(in) && !ctx.IsAnnotated(in) {
			ctx.Term(in).SetEffective(false)
		}
	}
}

// sourceConstraints gives a source's outputs a floor when nothing else
// constrains them.
func sourceConstraints(h *Helper, ctx *Context) {
	if len(h.fixed)+len(h.generated) > 0 {
		return
	}
	floor := lattice.NewConstant(ctx.sourceElement())
	_, outputs := h.splitPorts(ctx)
	for _, out := range outputs {
		h.SetAtLeast(ctx, ctx.Term(out), floor)
	}
}

// expressionConstraints relates the outputs of an Expression actor to its
// expression instead of to its inputs.
func expressionConstraints(h *Helper, ctx *Context) {
	attr, ok := ctx.Graph.Lookup(h.id, "expression")
	if !ok {
		return
	}
	_, outputs := h.splitPorts(ctx)
	for _, out := range outputs {
		h.constraintObject(ctx, h.interconnect, out, []graph.ID{attr})
	}
}
