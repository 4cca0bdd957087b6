package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/graph"
)

// destinationRoots groups action expression roots by destination in first
// appearance order.
type destinationRoots struct {
	order []graph.ID
	roots map[graph.ID][]graph.ID
}

func newDestinationRoots() *destinationRoots {
	return &destinationRoots{roots: make(map[graph.ID][]graph.ID)}
}

func (d *destinationRoots) add(dest, root graph.ID) {
	if _, ok := d.roots[dest]; !ok {
		d.order = append(d.order, dest)
	}
	d.roots[dest] = append(d.roots[dest], root)
}

func (d *destinationRoots) has(dest graph.ID) bool {
	_, ok := d.roots[dest]
	return ok
}

// fsmConstraints relates the destination of every transition action to
// the expressions assigned to it, then retires the outputs that no action
// writes.
func (h *Helper) fsmConstraints(ctx *Context) error {
	if err := h.constraintAttributes(ctx); err != nil {
		return err
	}

	g := ctx.Graph
	fsm := g.Component(h.id).Actor
	outputs, sets := newDestinationRoots(), newDestinationRoots()

	// Within one action group the last assignment to a destination wins.
	collect := func(actions []graph.ID, into *destinationRoots) error {
		dests := make([]graph.ID, len(actions))
		last := make(map[graph.ID]int, len(actions))
		for i, aid := range actions {
			action := g.Component(aid).Action
			dest, ok := g.Lookup(h.id, action.Destination)
			if !ok {
				ctx.Logger.Debug("action destination not found",
					zap.String("fsm", g.FullName(h.id)),
					zap.String("destination", action.Destination))
				dests[i] = graph.NoID
				continue
			}
			dests[i] = dest
			last[dest] = i
		}
		for i, aid := range actions {
			dest := dests[i]
			if dest == graph.NoID || last[dest] != i {
				continue
			}
			root, err := parseTree(ctx, aid)
			if err != nil {
				return err
			}
			if root == graph.NoID {
				continue
			}
			into.add(dest, root)
		}
		return nil
	}

	for _, sid := range fsm.States {
		for _, tid := range fsm.Transitions {
			t := g.Component(tid).Transition
			if t.From != sid {
				continue
			}
			if err := collect(t.OutputActions, outputs); err != nil {
				return err
			}
			if err := collect(t.SetActions, sets); err != nil {
				return err
			}
		}
	}

	for _, group := range []*destinationRoots{outputs, sets} {
		for _, dest := range group.order {
			roots := group.roots[dest]
			if h.interconnect.ConstrainsSource() {
				for _, root := range roots {
					h.constraintObject(ctx, h.interconnect, root, []graph.ID{dest})
				}
				continue
			}
			h.constraintObject(ctx, h.interconnect, dest, roots)
		}
	}

	if len(outputs.order) == 0 && len(sets.order) == 0 {
		return nil
	}
	_, outs := h.splitPorts(ctx)
	for _, port := range outs {
		if !outputs.has(port) && !sets.has(port) {
			ctx.Term(port).SetEffective(false)
		}
	}
	return nil
}
