package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/propsolve/internal/expr"
	"github.com/roach88/propsolve/internal/ir"
)

// DefaultModelName names a model whose block has no name field.
const DefaultModelName = "top"

// RootActorName names the root composite of every model. Component full
// names start with it, so results do not depend on the model name.
const RootActorName = "top"

// CompileModel parses a CUE value into a Model. The value is the root
// composite actor, e.g.:
//
//	model: {
//		name: "pipeline"
//		actors: {
//			A: { class: "Source", ports: out: { direction: "output", property: "Int" } }
//			B: { ports: in: "input" }
//		}
//		connections: ["A.out -> B.in"]
//	}
//
// Actors, ports, attributes, states and transitions are structs keyed by
// name and keep their declaration order. The actor kind is inferred from the
// content when the kind field is absent.
func CompileModel(v cue.Value) (*ir.Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultModelName
	}

	root, err := compileActor(RootActorName, v)
	if err != nil {
		return nil, err
	}
	if v.LookupPath(cue.ParsePath("kind")).Exists() && root.Kind != ir.ActorComposite {
		return nil, &CompileError{
			Field:   "model.kind",
			Message: fmt.Sprintf("model root must be composite, got %q", root.Kind),
			Pos:     v.Pos(),
		}
	}
	root.Kind = ir.ActorComposite

	return &ir.Model{Name: name, Root: root}, nil
}

// compileActor parses one actor struct.
func compileActor(name string, v cue.Value) (ir.Actor, error) {
	actor := ir.Actor{Name: name}

	var err error
	if actor.Class, err = optionalString(v, "class"); err != nil {
		return actor, err
	}
	kind, err := optionalString(v, "kind")
	if err != nil {
		return actor, err
	}
	actor.Kind = ir.ActorKind(kind)

	if actor.Ports, err = parsePorts(v); err != nil {
		return actor, err
	}
	if actor.Attributes, err = parseAttributes(v); err != nil {
		return actor, err
	}
	if actor.Annotations, err = optionalStrings(v, "annotations"); err != nil {
		return actor, err
	}

	childrenVal := v.LookupPath(cue.ParsePath("actors"))
	if childrenVal.Exists() {
		iter, err := childrenVal.Fields()
		if err != nil {
			return actor, formatCUEError(err)
		}
		for iter.Next() {
			child, err := compileActor(iter.Label(), iter.Value())
			if err != nil {
				return actor, err
			}
			actor.Actors = append(actor.Actors, child)
		}
	}

	if actor.Connections, err = parseConnections(v); err != nil {
		return actor, err
	}
	if actor.States, err = parseStates(v); err != nil {
		return actor, err
	}
	if actor.Transitions, err = parseTransitions(v); err != nil {
		return actor, err
	}

	if actor.Kind == "" {
		switch {
		case len(actor.States) > 0 || len(actor.Transitions) > 0:
			actor.Kind = ir.ActorFSM
		case childrenVal.Exists() || len(actor.Connections) > 0:
			actor.Kind = ir.ActorComposite
		default:
			actor.Kind = ir.ActorAtomic
		}
	}
	return actor, nil
}

// parsePorts accepts either a direction string or a struct per port:
//
//	ports: { in: "input", out: { direction: "output", property: "Int" } }
func parsePorts(v cue.Value) ([]ir.Port, error) {
	portsVal := v.LookupPath(cue.ParsePath("ports"))
	if !portsVal.Exists() {
		return nil, nil
	}
	iter, err := portsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ports []ir.Port
	for iter.Next() {
		port := ir.Port{Name: iter.Label()}
		pv := iter.Value()
		if dir, err := pv.String(); err == nil {
			port.Direction = ir.Direction(dir)
		} else {
			dir, err := requiredString(pv, "direction", "ports."+port.Name+".direction")
			if err != nil {
				return nil, err
			}
			port.Direction = ir.Direction(dir)
			if port.Property, err = optionalString(pv, "property"); err != nil {
				return nil, err
			}
		}
		ports = append(ports, port)
	}
	return ports, nil
}

// parseAttributes accepts either an expression string or a struct per
// attribute. A bare string is a full-visibility parameter.
func parseAttributes(v cue.Value) ([]ir.Attribute, error) {
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, nil
	}
	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var attrs []ir.Attribute
	for iter.Next() {
		attr := ir.Attribute{
			Name:       iter.Label(),
			Class:      ir.ClassParameter,
			Visibility: ir.VisibilityFull,
		}
		av := iter.Value()
		if s, err := av.String(); err == nil {
			attr.Expression = s
			attrs = append(attrs, attr)
			continue
		}

		if attr.Expression, err = optionalString(av, "expression"); err != nil {
			return nil, err
		}
		class, err := optionalString(av, "class")
		if err != nil {
			return nil, err
		}
		if class != "" {
			attr.Class = ir.AttributeClass(class)
		}
		visibility, err := optionalString(av, "visibility")
		if err != nil {
			return nil, err
		}
		if visibility != "" {
			attr.Visibility = ir.Visibility(visibility)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// parseConnections accepts "from -> to" strings or {from, to} structs.
func parseConnections(v cue.Value) ([]ir.Connection, error) {
	connsVal := v.LookupPath(cue.ParsePath("connections"))
	if !connsVal.Exists() {
		return nil, nil
	}
	iter, err := connsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var conns []ir.Connection
	for iter.Next() {
		cv := iter.Value()
		if s, err := cv.String(); err == nil {
			from, to, ok := strings.Cut(s, "->")
			if !ok {
				return nil, &CompileError{
					Field:   "connections",
					Message: fmt.Sprintf("connection %q must have the form \"from -> to\"", s),
					Pos:     cv.Pos(),
				}
			}
			conns = append(conns, ir.Connection{From: strings.TrimSpace(from), To: strings.TrimSpace(to)})
			continue
		}

		from, err := requiredString(cv, "from", "connections.from")
		if err != nil {
			return nil, err
		}
		to, err := requiredString(cv, "to", "connections.to")
		if err != nil {
			return nil, err
		}
		conns = append(conns, ir.Connection{From: from, To: to})
	}
	return conns, nil
}

// parseStates reads the FSM states. A state value is a struct that may set
// initial: true.
func parseStates(v cue.Value) ([]ir.State, error) {
	statesVal := v.LookupPath(cue.ParsePath("states"))
	if !statesVal.Exists() {
		return nil, nil
	}
	iter, err := statesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var states []ir.State
	for iter.Next() {
		state := ir.State{Name: iter.Label()}
		initVal := iter.Value().LookupPath(cue.ParsePath("initial"))
		if initVal.Exists() {
			if state.Initial, err = initVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		states = append(states, state)
	}
	return states, nil
}

// parseTransitions reads the FSM transitions. Actions are written as
// assignment lists, "y = x + 1; z = 2", or as a list of such strings.
func parseTransitions(v cue.Value) ([]ir.Transition, error) {
	transVal := v.LookupPath(cue.ParsePath("transitions"))
	if !transVal.Exists() {
		return nil, nil
	}
	iter, err := transVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var transitions []ir.Transition
	for iter.Next() {
		t := ir.Transition{Name: iter.Label()}
		tv := iter.Value()
		field := "transitions." + t.Name

		if t.From, err = requiredString(tv, "from", field+".from"); err != nil {
			return nil, err
		}
		if t.To, err = requiredString(tv, "to", field+".to"); err != nil {
			return nil, err
		}
		if t.Guard, err = optionalString(tv, "guard"); err != nil {
			return nil, err
		}
		if t.OutputActions, err = parseActions(tv, "output_actions", field); err != nil {
			return nil, err
		}
		if t.SetActions, err = parseActions(tv, "set_actions", field); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

func parseActions(v cue.Value, name, field string) ([]ir.Assignment, error) {
	av := v.LookupPath(cue.ParsePath(name))
	if !av.Exists() {
		return nil, nil
	}

	var sources []string
	if s, err := av.String(); err == nil {
		sources = []string{s}
	} else {
		if sources, err = optionalStrings(v, name); err != nil {
			return nil, err
		}
	}

	var out []ir.Assignment
	for _, src := range sources {
		assignments, err := expr.SplitAssignments(src)
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + name,
				Message: err.Error(),
				Pos:     av.Pos(),
			}
		}
		for _, a := range assignments {
			out = append(out, ir.Assignment{Destination: a.Destination, Expression: a.Expression})
		}
	}
	return out, nil
}

// optionalString returns the string at path, or "" when absent.
func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredString(v cue.Value, path, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: path + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// optionalStrings returns the string list at path, or nil when absent.
func optionalStrings(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
