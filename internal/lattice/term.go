package lattice

import (
	"fmt"
	"strings"
)

// Term is the lattice-side proxy for a component's property.
type Term interface {
	// Value returns the current value; ok is false while unresolved.
	Value() (e Element, ok bool)
	// SetValue assigns a value. It fails on terms that are not settable.
	SetValue(e Element) error
	IsSettable() bool
	IsEffective() bool
	SetEffective(effective bool)
	// Constants returns the constant sub-terms: none for a free variable,
	// the term itself for a literal, the recursive set for a function term.
	Constants() []Term
	// Variables returns the settable terms this term depends on.
	Variables() []Term
	String() string
}

// NotSettableError is returned when assigning to a fixed term.
type NotSettableError struct {
	Term string
}

func (e *NotSettableError) Error() string {
	return fmt.Sprintf("term %s is not settable", e.Term)
}

// Variable is the term of one component. Key identifies the component to
// the caller; Label is used for display.
type Variable struct {
	Key   int
	Label string

	value     Element
	resolved  bool
	fixed     bool
	effective bool
	retired   bool
}

var _ Term = (*Variable)(nil)

// NewVariable returns an effective, settable, unresolved variable.
func NewVariable(key int, label string) *Variable {
	return &Variable{Key: key, Label: label, effective: true}
}

func (v *Variable) Value() (Element, bool) {
	return v.value, v.resolved
}

func (v *Variable) SetValue(e Element) error {
	if v.fixed {
		return &NotSettableError{Term: v.Label}
	}
	v.value, v.resolved = e, true
	return nil
}

// ClearValue forgets the resolved value of a settable variable.
// Pinned values are kept.
func (v *Variable) ClearValue() {
	if v.fixed {
		return
	}
	v.value, v.resolved = Element{}, false
}

// Pin fixes the variable to e and makes it non-settable.
func (v *Variable) Pin(e Element) {
	v.value, v.resolved, v.fixed = e, true, true
}

// Unpin makes a pinned variable settable again and clears its value.
func (v *Variable) Unpin() {
	v.fixed = false
	v.value, v.resolved = Element{}, false
}

func (v *Variable) IsSettable() bool {
	return !v.fixed
}

func (v *Variable) IsEffective() bool {
	return v.effective
}

// SetEffective changes effectiveness. Once a variable has been made
// ineffective it stays so until ResetEffective.
func (v *Variable) SetEffective(effective bool) {
	if !effective {
		v.effective, v.retired = false, true
		return
	}
	if !v.retired {
		v.effective = true
	}
}

// ResetEffective makes the variable effective again for a new pass.
func (v *Variable) ResetEffective() {
	v.effective, v.retired = true, false
}

func (v *Variable) Constants() []Term {
	return nil
}

func (v *Variable) Variables() []Term {
	if v.fixed {
		return nil
	}
	return []Term{v}
}

func (v *Variable) String() string {
	return v.Label
}

// Constant is a fixed lattice element used as a term.
type Constant struct {
	elem Element
}

var _ Term = Constant{}

// NewConstant wraps e as a term.
func NewConstant(e Element) Constant {
	return Constant{elem: e}
}

func (c Constant) Value() (Element, bool) { return c.elem, true }

func (c Constant) SetValue(Element) error {
	return &NotSettableError{Term: c.elem.name}
}

func (c Constant) IsSettable() bool  { return false }
func (c Constant) IsEffective() bool { return true }
func (c Constant) SetEffective(bool) {}
func (c Constant) Constants() []Term { return []Term{c} }
func (c Constant) Variables() []Term { return nil }
func (c Constant) String() string    { return c.elem.name }
func (c Constant) Element() Element  { return c.elem }

// Meet is the greatest lower bound of its arguments. Ineffective and
// unresolved arguments are skipped; with none left the meet is unresolved.
type Meet struct {
	lat       Lattice
	args      []Term
	effective bool
}

var _ Term = (*Meet)(nil)

// NewMeet builds a meet term over args.
func NewMeet(lat Lattice, args []Term) *Meet {
	return &Meet{lat: lat, args: append([]Term(nil), args...), effective: true}
}

// Args returns the meet's arguments.
func (m *Meet) Args() []Term {
	return m.args
}

func (m *Meet) Value() (Element, bool) {
	var (
		acc Element
		ok  bool
	)
	for _, a := range m.args {
		if !a.IsEffective() {
			continue
		}
		v, resolved := a.Value()
		if !resolved {
			continue
		}
		if !ok {
			acc, ok = v, true
			continue
		}
		acc = m.lat.Meet(acc, v)
	}
	return acc, ok
}

func (m *Meet) SetValue(Element) error {
	return &NotSettableError{Term: m.String()}
}

func (m *Meet) IsSettable() bool { return false }

func (m *Meet) IsEffective() bool { return m.effective }

func (m *Meet) SetEffective(effective bool) { m.effective = effective }

func (m *Meet) Constants() []Term {
	var out []Term
	for _, a := range m.args {
		out = append(out, a.Constants()...)
	}
	return out
}

func (m *Meet) Variables() []Term {
	var out []Term
	for _, a := range m.args {
		out = append(out, a.Variables()...)
	}
	return out
}

func (m *Meet) String() string {
	names := make([]string, len(m.args))
	for i, a := range m.args {
		names[i] = a.String()
	}
	return "meet(" + strings.Join(names, ", ") + ")"
}
