package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/ir"
)

// GuardAttributeName is the name given to the attribute holding a
// transition's guard expression.
const GuardAttributeName = "guardTransition"

// BuildError reports a model that cannot be flattened into a graph.
type BuildError struct {
	Path    string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build graph: %s: %s", e.Path, e.Message)
}

// Graph is an arena of components.
type Graph struct {
	name    string
	comps   []*Component
	root    ID
	sinks   map[ID][]ID
	sources map[ID][]ID
	trees   map[ID]treeEntry
}

type treeEntry struct {
	root ID
	err  error
}

// Build flattens a model into a graph. The model's root must be composite.
func Build(m ir.Model) (*Graph, error) {
	g := &Graph{
		name:    m.Name,
		sinks:   make(map[ID][]ID),
		sources: make(map[ID][]ID),
		trees:   make(map[ID]treeEntry),
	}
	if m.Root.Kind != ir.ActorComposite {
		return nil, &BuildError{Path: m.Root.Name, Message: "root actor must be composite"}
	}
	root, err := g.addActor(m.Root, NoID)
	if err != nil {
		return nil, err
	}
	g.root = root
	return g, nil
}

// Name returns the model name.
func (g *Graph) Name() string { return g.name }

// Root returns the root composite actor.
func (g *Graph) Root() ID { return g.root }

// Len returns the number of components, including parsed expression nodes.
func (g *Graph) Len() int { return len(g.comps) }

// Component returns the component with the given id. It panics on an id
// that does not belong to the graph.
func (g *Graph) Component(id ID) *Component {
	return g.comps[id]
}

// Sinks returns the ports a port drives through connections.
func (g *Graph) Sinks(port ID) []ID { return g.sinks[port] }

// Sources returns the ports driving a port through connections.
func (g *Graph) Sources(port ID) []ID { return g.sources[port] }

// IsConnected reports whether the port takes part in any connection.
func (g *Graph) IsConnected(port ID) bool {
	return len(g.sinks[port]) > 0 || len(g.sources[port]) > 0
}

func (g *Graph) add(c *Component) ID {
	c.ID = ID(len(g.comps))
	g.comps = append(g.comps, c)
	return c.ID
}

func (g *Graph) addActor(a ir.Actor, parent ID) (ID, error) {
	var kind Kind
	switch a.Kind {
	case ir.ActorAtomic:
		kind = KindAtomic
	case ir.ActorComposite:
		kind = KindComposite
	case ir.ActorFSM:
		kind = KindFSM
	default:
		return NoID, &BuildError{Path: a.Name, Message: fmt.Sprintf("unknown actor kind %q", a.Kind)}
	}

	data := &ActorData{Class: a.Class, Annotations: append([]string(nil), a.Annotations...)}
	id := g.add(&Component{Kind: kind, Name: a.Name, Parent: parent, Actor: data})

	for _, p := range a.Ports {
		pid := g.add(&Component{
			Kind:   KindPort,
			Name:   p.Name,
			Parent: id,
			Port:   &PortData{Direction: p.Direction, Property: p.Property},
		})
		data.Ports = append(data.Ports, pid)
	}
	for _, attr := range a.Attributes {
		data.Attributes = append(data.Attributes, g.addAttribute(attr, id))
	}

	switch kind {
	case KindComposite:
		for _, child := range a.Actors {
			cid, err := g.addActor(child, id)
			if err != nil {
				return NoID, err
			}
			data.Children = append(data.Children, cid)
		}
		for _, conn := range a.Connections {
			if err := g.addLink(id, conn); err != nil {
				return NoID, err
			}
		}
	case KindFSM:
		if err := g.addMachine(id, a); err != nil {
			return NoID, err
		}
	}
	return id, nil
}

func (g *Graph) addAttribute(attr ir.Attribute, parent ID) ID {
	visibility := attr.Visibility
	if visibility == "" {
		visibility = ir.VisibilityFull
	}
	return g.add(&Component{
		Kind:   KindAttribute,
		Name:   attr.Name,
		Parent: parent,
		Attribute: &AttributeData{
			Class:      attr.Class,
			Visibility: visibility,
			Expression: attr.Expression,
		},
	})
}

func (g *Graph) addMachine(fsm ID, a ir.Actor) error {
	data := g.comps[fsm].Actor
	states := make(map[string]ID, len(a.States))
	for _, s := range a.States {
		sid := g.add(&Component{Kind: KindState, Name: s.Name, Parent: fsm})
		states[s.Name] = sid
		data.States = append(data.States, sid)
	}

	for i, t := range a.Transitions {
		name := t.Name
		if name == "" {
			name = "t" + strconv.Itoa(i)
		}
		from, ok := states[t.From]
		if !ok {
			return &BuildError{Path: g.FullName(fsm) + "." + name, Message: fmt.Sprintf("unknown source state %q", t.From)}
		}
		to, ok := states[t.To]
		if !ok {
			return &BuildError{Path: g.FullName(fsm) + "." + name, Message: fmt.Sprintf("unknown destination state %q", t.To)}
		}

		td := &TransitionData{From: from, To: to, Guard: NoID}
		tid := g.add(&Component{Kind: KindTransition, Name: name, Parent: fsm, Transition: td})
		if t.Guard != "" {
			td.Guard = g.addAttribute(ir.Attribute{
				Name:       GuardAttributeName,
				Class:      ir.ClassStringAttribute,
				Visibility: ir.VisibilityFull,
				Expression: t.Guard,
			}, tid)
		}
		td.OutputActions = g.addActions(tid, OutputAction, t.OutputActions)
		td.SetActions = g.addActions(tid, SetAction, t.SetActions)
		data.Transitions = append(data.Transitions, tid)
	}
	return nil
}

func (g *Graph) addActions(transition ID, group ActionGroup, actions []ir.Assignment) []ID {
	ids := make([]ID, 0, len(actions))
	for i, as := range actions {
		ids = append(ids, g.add(&Component{
			Kind:   KindAction,
			Name:   fmt.Sprintf("%s[%d]", group, i),
			Parent: transition,
			Action: &ActionData{Group: group, Destination: as.Destination, Expression: as.Expression},
		}))
	}
	return ids
}

func (g *Graph) addLink(composite ID, conn ir.Connection) error {
	from, err := g.resolveEndpoint(composite, conn.From)
	if err != nil {
		return err
	}
	to, err := g.resolveEndpoint(composite, conn.To)
	if err != nil {
		return err
	}
	g.comps[composite].Actor.Links = append(g.comps[composite].Actor.Links, Link{From: from, To: to})
	g.sinks[from] = append(g.sinks[from], to)
	g.sources[to] = append(g.sources[to], from)
	return nil
}

// resolveEndpoint resolves "actor.port" to a child port and "port" to one of
// the composite's own ports.
func (g *Graph) resolveEndpoint(composite ID, endpoint string) (ID, error) {
	owner := composite
	portName := endpoint
	if actorName, p, ok := strings.Cut(endpoint, "."); ok {
		portName = p
		owner = NoID
		for _, child := range g.comps[composite].Actor.Children {
			if g.comps[child].Name == actorName {
				owner = child
				break
			}
		}
		if owner == NoID {
			return NoID, &BuildError{Path: g.FullName(composite), Message: fmt.Sprintf("connection references unknown actor %q", actorName)}
		}
	}
	for _, pid := range g.comps[owner].Actor.Ports {
		if g.comps[pid].Name == portName {
			return pid, nil
		}
	}
	return NoID, &BuildError{Path: g.FullName(composite), Message: fmt.Sprintf("connection references unknown port %q", endpoint)}
}

// FullName returns the dotted path of a component from the root.
// Expression nodes are named after their owner plus a tree path, e.g.
// "top.Expr.expression@r.0".
func (g *Graph) FullName(id ID) string {
	c := g.comps[id]
	if c.Kind == KindExprNode {
		return g.FullName(c.Expr.Owner) + c.Name
	}
	if c.Parent == NoID {
		return c.Name
	}
	return g.FullName(c.Parent) + "." + c.Name
}

// ScopeOf returns the actor that encloses a component.
func (g *Graph) ScopeOf(id ID) ID {
	c := g.comps[id]
	if c.Kind == KindExprNode {
		return c.Expr.Scope
	}
	for p := c.Parent; p != NoID; p = g.comps[p].Parent {
		if g.comps[p].Kind.IsActor() {
			return p
		}
	}
	return NoID
}

// Lookup finds a port or attribute of an actor by name.
func (g *Graph) Lookup(actor ID, name string) (ID, bool) {
	data := g.comps[actor].Actor
	if data == nil {
		return NoID, false
	}
	for _, pid := range data.Ports {
		if g.comps[pid].Name == name {
			return pid, true
		}
	}
	for _, aid := range data.Attributes {
		if g.comps[aid].Name == name {
			return aid, true
		}
	}
	return NoID, false
}

// ParseTree returns the root node of the parse tree for an attribute or
// action. A blank expression yields NoID. Results, including errors, are
// cached so every caller sees the same nodes.
func (g *Graph) ParseTree(owner ID) (ID, error) {
	if entry, ok := g.trees[owner]; ok {
		return entry.root, entry.err
	}
	c := g.comps[owner]
	if !c.HasExpression() {
		return NoID, fmt.Errorf("component %s of kind %s has no expression", g.FullName(owner), c.Kind)
	}

	node, err := expr.Parse(c.ExpressionText())
	entry := treeEntry{root: NoID, err: err}
	if err == nil && node != nil {
		entry.root = g.addTree(node, owner, g.ScopeOf(owner), owner, "@r")
	}
	g.trees[owner] = entry
	return entry.root, entry.err
}

func (g *Graph) addTree(n *expr.Node, owner, scope, parent ID, path string) ID {
	data := &ExprData{Node: n, Owner: owner, Scope: scope}
	id := g.add(&Component{Kind: KindExprNode, Name: path, Parent: parent, Expr: data})
	for i, child := range n.Children {
		data.Children = append(data.Children, g.addTree(child, owner, scope, id, path+"."+strconv.Itoa(i)))
	}
	return id
}

// Actors returns every actor in pre-order starting at the root.
func (g *Graph) Actors() []ID {
	var out []ID
	var visit func(ID)
	visit = func(id ID) {
		out = append(out, id)
		for _, child := range g.comps[id].Actor.Children {
			visit(child)
		}
	}
	visit(g.root)
	return out
}
