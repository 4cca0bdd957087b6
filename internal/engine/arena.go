package engine

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/lattice"
)

// Arena owns the helpers and attached results of one graph. Helpers are
// created lazily and survive Reinitialize; Clear drops everything.
type Arena struct {
	g           *graph.Graph
	useDefaults bool
	helpers     map[graph.ID]*Helper
	attrs       map[graph.ID]*PropertyAttribute
	previous    map[graph.ID]lattice.Element
}

// NewArena returns an empty arena for g. Default constraints are enabled.
func NewArena(g *graph.Graph) *Arena {
	a := &Arena{g: g, useDefaults: true}
	a.Clear()
	return a
}

// Graph returns the graph the arena indexes.
func (a *Arena) Graph() *graph.Graph {
	return a.g
}

// SetDefaultConstraints enables or disables default constraints for every
// existing and future helper.
func (a *Arena) SetDefaultConstraints(enabled bool) {
	a.useDefaults = enabled
	for _, h := range a.helpers {
		h.useDefaults = enabled
	}
}

// Helper returns the helper of an actor or parse tree node, creating it on
// first use.
func (a *Arena) Helper(id graph.ID) (*Helper, error) {
	if h, ok := a.helpers[id]; ok {
		return h, nil
	}
	if id < 0 || int(id) >= a.g.Len() {
		return nil, fmt.Errorf("no component with id %d", id)
	}
	c := a.g.Component(id)
	if !c.Kind.IsActor() && c.Kind != graph.KindExprNode {
		return nil, fmt.Errorf("no helper for %s component %s", c.Kind, a.g.FullName(id))
	}
	h := newHelper(id, c.Kind, a.useDefaults)
	a.helpers[id] = h
	return h, nil
}

// Len returns the number of helpers created so far.
func (a *Arena) Len() int {
	return len(a.helpers)
}

// Attach records a resolved property on a component, replacing any
// previous attribute.
func (a *Arena) Attach(id graph.ID, e lattice.Element) *PropertyAttribute {
	attr := NewPropertyAttribute(a.g.FullName(id))
	attr.SetProperty(e)
	a.attrs[id] = attr
	return attr
}

// Attribute returns the property attribute attached to a component.
func (a *Arena) Attribute(id graph.ID) (*PropertyAttribute, bool) {
	attr, ok := a.attrs[id]
	return attr, ok
}

// Detach removes the property attribute of a component.
func (a *Arena) Detach(id graph.ID) {
	delete(a.attrs, id)
}

// Attached returns the components carrying a property attribute, in id order.
func (a *Arena) Attached() []graph.ID {
	ids := make([]graph.ID, 0, len(a.attrs))
	for id := range a.attrs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MarshalJSON renders the attached properties as an object keyed by full
// name. Attributes without a property are left out.
func (a *Arena) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(a.attrs))
	for _, attr := range a.attrs {
		if e := attr.Expression(); e != "" {
			out[attr.Name] = e
		}
	}
	return json.Marshal(out)
}

// RecordPrevious remembers the value a component had before this pass.
func (a *Arena) RecordPrevious(id graph.ID, e lattice.Element) {
	a.previous[id] = e
}

// Previous returns the value recorded by RecordPrevious.
func (a *Arena) Previous(id graph.ID) (lattice.Element, bool) {
	e, ok := a.previous[id]
	return e, ok
}

// Clear drops every helper, attached attribute and recorded value.
func (a *Arena) Clear() {
	a.helpers = make(map[graph.ID]*Helper)
	a.attrs = make(map[graph.ID]*PropertyAttribute)
	a.previous = make(map[graph.ID]lattice.Element)
}
