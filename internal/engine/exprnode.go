package engine

import (
	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/lattice"
)

// exprConstraints relates a parse tree node to its children, or a leaf to
// the literal element or the component it names.
func (h *Helper) exprConstraints(ctx *Context) {
	g := ctx.Graph
	data := g.Component(h.id).Expr
	if len(data.Children) > 0 {
		h.constraintObject(ctx, h.interconnect, h.id, data.Children)
		return
	}

	switch data.Node.Kind {
	case expr.NodeLiteral:
		if e, ok := ctx.Lattice.Literal(string(data.Node.Literal)); ok {
			h.SetAtLeast(ctx, ctx.Term(h.id), lattice.NewConstant(e))
		}
	case expr.NodeIdent:
		if target, ok := g.Lookup(data.Scope, data.Node.Value); ok {
			h.constraintObject(ctx, h.interconnect, h.id, []graph.ID{target})
		}
	}
}
