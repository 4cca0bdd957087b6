package graph

import (
	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/ir"
)

// ID identifies a component within one Graph.
type ID int

// NoID is the absent component.
const NoID ID = -1

// Kind tags the variant of a Component.
type Kind int

const (
	KindPort Kind = iota
	KindAttribute
	KindAction
	KindAtomic
	KindComposite
	KindFSM
	KindState
	KindTransition
	KindExprNode
)

var kindNames = [...]string{
	KindPort:       "port",
	KindAttribute:  "attribute",
	KindAction:     "action",
	KindAtomic:     "atomic",
	KindComposite:  "composite",
	KindFSM:        "fsm",
	KindState:      "state",
	KindTransition: "transition",
	KindExprNode:   "expr",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsActor reports whether the kind is one of the actor kinds.
func (k Kind) IsActor() bool {
	return k == KindAtomic || k == KindComposite || k == KindFSM
}

// Component is one element of the graph that may carry a property.
// Exactly one payload pointer is set, selected by Kind; states carry none.
type Component struct {
	ID     ID
	Kind   Kind
	Name   string
	Parent ID

	Actor      *ActorData
	Port       *PortData
	Attribute  *AttributeData
	Action     *ActionData
	Transition *TransitionData
	Expr       *ExprData
}

// ActorData is the payload of atomic, composite and FSM actors.
type ActorData struct {
	Class       string
	Ports       []ID
	Attributes  []ID
	Annotations []string
	Children    []ID // composite
	Links       []Link
	States      []ID // fsm
	Transitions []ID // fsm
}

// Link is a resolved connection between two ports.
type Link struct {
	From ID
	To   ID
}

// PortData is the payload of a port.
type PortData struct {
	Direction ir.Direction
	Property  string
}

// IsInput reports whether the port is an input.
func (p *PortData) IsInput() bool { return p.Direction == ir.DirInput }

// IsOutput reports whether the port is an output.
func (p *PortData) IsOutput() bool { return p.Direction == ir.DirOutput }

// AttributeData is the payload of an attribute.
type AttributeData struct {
	Class      ir.AttributeClass
	Visibility ir.Visibility
	Expression string
}

// ActionGroup distinguishes immediate output actions from commit actions.
type ActionGroup int

const (
	OutputAction ActionGroup = iota
	SetAction
)

func (g ActionGroup) String() string {
	if g == SetAction {
		return "set_actions"
	}
	return "output_actions"
}

// ActionData is the payload of one transition action.
type ActionData struct {
	Group       ActionGroup
	Destination string
	Expression  string
}

// TransitionData is the payload of an FSM transition.
type TransitionData struct {
	From          ID
	To            ID
	Guard         ID // attribute holding the guard expression, or NoID
	OutputActions []ID
	SetActions    []ID
}

// ExprData is the payload of a parse tree node.
type ExprData struct {
	Node     *expr.Node
	Owner    ID // attribute or action the tree was parsed from
	Scope    ID // actor whose ports and attributes identifiers refer to
	Children []ID
}

// HasExpression reports whether the component carries expression text.
func (c *Component) HasExpression() bool {
	return c.Kind == KindAttribute || c.Kind == KindAction
}

// ExpressionText returns the expression of an attribute or action.
func (c *Component) ExpressionText() string {
	switch c.Kind {
	case KindAttribute:
		return c.Attribute.Expression
	case KindAction:
		return c.Action.Expression
	default:
		return ""
	}
}
