package lattice

import (
	"fmt"
	"strings"

	"github.com/roach88/propsolve/internal/ir"
)

// Element is a lattice element. The zero Element is not part of any lattice.
type Element struct {
	idx  int
	name string
}

// Name returns the element's canonical name.
func (e Element) Name() string {
	return e.name
}

func (e Element) String() string {
	return e.name
}

// IsZero reports whether e is the zero Element.
func (e Element) IsZero() bool {
	return e.name == ""
}

// Lattice is the CPO capability consumed by the solver.
type Lattice interface {
	Name() string
	Elements() []Element
	// Element looks up an element by name, ignoring case.
	Element(name string) (Element, bool)
	Bottom() Element
	Top() Element
	Leq(a, b Element) bool
	Join(a, b Element) Element
	Meet(a, b Element) Element
	// Literal returns the element assigned to a literal kind (ir.Literal*).
	Literal(kind string) (Element, bool)
}

// Error reports a Hasse diagram that does not describe a lattice.
type Error struct {
	Lattice string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lattice %s: %s", e.Lattice, e.Message)
}

// Finite is a lattice over a finite set of named elements.
type Finite struct {
	name     string
	elements []Element
	byName   map[string]Element // lower-cased name
	leq      [][]bool
	join     [][]int
	meet     [][]int
	top      Element
	bottom   Element
	literals map[string]Element
}

var _ Lattice = (*Finite)(nil)

// NewFinite builds and validates a lattice from its Hasse diagram.
func NewFinite(spec ir.LatticeSpec) (*Finite, error) {
	l := &Finite{
		name:     spec.Name,
		byName:   make(map[string]Element, len(spec.Elements)),
		literals: make(map[string]Element, len(spec.Literals)),
	}
	if len(spec.Elements) == 0 {
		return nil, l.errorf("no elements")
	}

	for i, name := range spec.Elements {
		if strings.TrimSpace(name) == "" {
			return nil, l.errorf("element %d has an empty name", i)
		}
		key := strings.ToLower(name)
		if _, dup := l.byName[key]; dup {
			return nil, l.errorf("duplicate element %q", name)
		}
		e := Element{idx: i, name: name}
		l.elements = append(l.elements, e)
		l.byName[key] = e
	}

	n := len(l.elements)
	l.leq = make([][]bool, n)
	for i := range l.leq {
		l.leq[i] = make([]bool, n)
		l.leq[i][i] = true
	}
	for _, c := range spec.Order {
		lo, ok := l.Element(c.Lesser)
		if !ok {
			return nil, l.errorf("order references unknown element %q", c.Lesser)
		}
		hi, ok := l.Element(c.Greater)
		if !ok {
			return nil, l.errorf("order references unknown element %q", c.Greater)
		}
		l.leq[lo.idx][hi.idx] = true
	}

	// Reflexive-transitive closure.
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !l.leq[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if l.leq[k][j] {
					l.leq[i][j] = true
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if l.leq[i][j] && l.leq[j][i] {
				return nil, l.errorf("order has a cycle through %q and %q", l.elements[i].name, l.elements[j].name)
			}
		}
	}

	var err error
	if l.top, err = l.unique(func(i, j int) bool { return l.leq[j][i] }, "top"); err != nil {
		return nil, err
	}
	if l.bottom, err = l.unique(func(i, j int) bool { return l.leq[i][j] }, "bottom"); err != nil {
		return nil, err
	}

	l.join = make([][]int, n)
	l.meet = make([][]int, n)
	for i := 0; i < n; i++ {
		l.join[i] = make([]int, n)
		l.meet[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			lub := l.bound(i, j, func(a, b int) bool { return l.leq[a][b] })
			if lub < 0 {
				return nil, l.errorf("%q and %q do not have a unique least upper bound",
					l.elements[i].name, l.elements[j].name)
			}
			glb := l.bound(i, j, func(a, b int) bool { return l.leq[b][a] })
			if glb < 0 {
				return nil, l.errorf("%q and %q do not have a unique greatest lower bound",
					l.elements[i].name, l.elements[j].name)
			}
			l.join[i][j], l.join[j][i] = lub, lub
			l.meet[i][j], l.meet[j][i] = glb, glb
		}
	}

	for kind, name := range spec.Literals {
		e, ok := l.Element(name)
		if !ok {
			return nil, l.errorf("literal %q maps to unknown element %q", kind, name)
		}
		l.literals[kind] = e
	}

	return l, nil
}

// unique finds the single element related to every other element by rel.
func (l *Finite) unique(rel func(i, j int) bool, what string) (Element, error) {
	var found []Element
	for i := range l.elements {
		all := true
		for j := range l.elements {
			if !rel(i, j) {
				all = false
				break
			}
		}
		if all {
			found = append(found, l.elements[i])
		}
	}
	if len(found) != 1 {
		return Element{}, l.errorf("cannot find a unique %s element", what)
	}
	return found[0], nil
}

// bound returns the least common bound of i and j under le, or -1.
// For joins le is the order itself; for meets it is the reversed order.
func (l *Finite) bound(i, j int, le func(a, b int) bool) int {
	var candidates []int
	for k := range l.elements {
		if le(i, k) && le(j, k) {
			candidates = append(candidates, k)
		}
	}
	for _, c := range candidates {
		least := true
		for _, other := range candidates {
			if !le(c, other) {
				least = false
				break
			}
		}
		if least {
			return c
		}
	}
	return -1
}

func (l *Finite) errorf(format string, args ...any) error {
	return &Error{Lattice: l.name, Message: fmt.Sprintf(format, args...)}
}

func (l *Finite) Name() string { return l.name }

func (l *Finite) Elements() []Element {
	out := make([]Element, len(l.elements))
	copy(out, l.elements)
	return out
}

func (l *Finite) Element(name string) (Element, bool) {
	e, ok := l.byName[strings.ToLower(name)]
	return e, ok
}

func (l *Finite) Bottom() Element { return l.bottom }

func (l *Finite) Top() Element { return l.top }

func (l *Finite) Leq(a, b Element) bool {
	return l.leq[a.idx][b.idx]
}

func (l *Finite) Join(a, b Element) Element {
	return l.elements[l.join[a.idx][b.idx]]
}

func (l *Finite) Meet(a, b Element) Element {
	return l.elements[l.meet[a.idx][b.idx]]
}

func (l *Finite) Literal(kind string) (Element, bool) {
	e, ok := l.literals[kind]
	return e, ok
}
