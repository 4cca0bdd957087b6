package ir

// ActorKind selects which helper variant handles an actor.
type ActorKind string

const (
	ActorAtomic    ActorKind = "atomic"
	ActorComposite ActorKind = "composite"
	ActorFSM       ActorKind = "fsm"
)

// ValidActorKinds defines allowed actor kinds.
var ValidActorKinds = map[ActorKind]bool{
	ActorAtomic:    true,
	ActorComposite: true,
	ActorFSM:       true,
}

// Direction is a port direction.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
)

// Visibility mirrors the settable visibility of an attribute.
// Only VisibilityFull attributes are considered for property inference.
type Visibility string

const (
	VisibilityFull        Visibility = "full"
	VisibilityExpert      Visibility = "expert"
	VisibilityNotEditable Visibility = "not_editable"
	VisibilityNone        Visibility = "none"
)

// AttributeClass is the structural class of an attribute.
type AttributeClass string

const (
	ClassParameter       AttributeClass = "parameter"
	ClassStringParameter AttributeClass = "string_parameter"
	ClassPortParameter   AttributeClass = "port_parameter"
	ClassStringAttribute AttributeClass = "string_attribute"
	ClassAttribute       AttributeClass = "attribute"
)

// ValidAttributeClasses defines allowed attribute classes.
var ValidAttributeClasses = map[AttributeClass]bool{
	ClassParameter:       true,
	ClassStringParameter: true,
	ClassPortParameter:   true,
	ClassStringAttribute: true,
	ClassAttribute:       true,
}

// Model is a compiled dataflow graph. Root is always a composite actor.
type Model struct {
	Name string `json:"name"`
	Root Actor  `json:"root"`
}

// Actor is a node in the graph hierarchy.
type Actor struct {
	Name        string       `json:"name"`
	Class       string       `json:"class,omitempty"`
	Kind        ActorKind    `json:"kind"`
	Ports       []Port       `json:"ports,omitempty"`
	Attributes  []Attribute  `json:"attributes,omitempty"`
	Annotations []string     `json:"annotations,omitempty"`
	Actors      []Actor      `json:"actors,omitempty"`      // composite only
	Connections []Connection `json:"connections,omitempty"` // composite only
	States      []State      `json:"states,omitempty"`      // fsm only
	Transitions []Transition `json:"transitions,omitempty"` // fsm only
}

// Port is an actor port. Property, when set, pins the port to a lattice element.
type Port struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Property  string    `json:"property,omitempty"`
}

// Attribute is a settable attribute carrying an expression.
type Attribute struct {
	Name       string         `json:"name"`
	Class      AttributeClass `json:"class"`
	Visibility Visibility     `json:"visibility"`
	Expression string         `json:"expression"`
}

// Connection links two ports inside a composite.
// Endpoints are "actor.port" for child ports or "port" for the composite's own ports.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State is a finite-state-machine state.
type State struct {
	Name    string `json:"name"`
	Initial bool   `json:"initial,omitempty"`
}

// Transition is a guarded edge between two states.
// OutputActions fire immediately; SetActions commit on transition.
type Transition struct {
	Name          string       `json:"name"`
	From          string       `json:"from"`
	To            string       `json:"to"`
	Guard         string       `json:"guard,omitempty"`
	OutputActions []Assignment `json:"output_actions,omitempty"`
	SetActions    []Assignment `json:"set_actions,omitempty"`
}

// Assignment is one "destination = expression" action.
type Assignment struct {
	Destination string `json:"destination"`
	Expression  string `json:"expression"`
}

// Port returns the named port and whether it exists.
func (a *Actor) Port(name string) (Port, bool) {
	for _, p := range a.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Child returns the named child actor and whether it exists.
func (a *Actor) Child(name string) (*Actor, bool) {
	for i := range a.Actors {
		if a.Actors[i].Name == name {
			return &a.Actors[i], true
		}
	}
	return nil, false
}
