package engine

import (
	"github.com/roach88/propsolve/internal/graph"
)

// connectionConstraints relates the two ends of every connection in a
// composite under its interconnect discipline. Source disciplines constrain
// each source port against its sinks; sink disciplines constrain each sink
// port against its sources.
func (h *Helper) connectionConstraints(ctx *Context) {
	links := ctx.Graph.Component(h.id).Actor.Links
	source := h.interconnect.ConstrainsSource()

	var order []graph.ID
	targets := make(map[graph.ID][]graph.ID)
	for _, l := range links {
		port, other := l.To, l.From
		if source {
			port, other = l.From, l.To
		}
		if _, seen := targets[port]; !seen {
			order = append(order, port)
		}
		targets[port] = append(targets[port], other)
	}
	for _, port := range order {
		h.constraintObject(ctx, h.interconnect, port, targets[port])
	}
}
