package solver

import (
	"github.com/roach88/propsolve/internal/engine"
)

// HelperOutline describes one helper of the last pass and the number of
// constraints it produced.
type HelperOutline struct {
	Component string          `json:"component"`
	Kind      string          `json:"kind"`
	Own       int             `json:"own"`
	Sub       int             `json:"sub"`
	Children  []HelperOutline `json:"children,omitempty"`
}

// Outline walks the helper tree from the root. It reports the constraints
// of the last Resolve, so it must be called before Reset.
func (s *Solver) Outline() (*HelperOutline, error) {
	if s.graph == nil {
		return nil, ErrNotBound
	}
	ectx, err := s.newContext(engine.ModeAnnotate)
	if err != nil {
		return nil, err
	}
	root, err := s.arena.Helper(s.graph.Root())
	if err != nil {
		return nil, err
	}
	out, err := s.outline(ectx, root)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Solver) outline(ectx *engine.Context, h *engine.Helper) (HelperOutline, error) {
	node := HelperOutline{
		Component: s.graph.FullName(h.ID()),
		Kind:      h.Kind().String(),
		Own:       len(h.OwnConstraints()),
		Sub:       len(h.SubHelperConstraints()),
	}
	subs, err := h.SubHelpers(ectx)
	if err != nil {
		return node, err
	}
	for _, sub := range subs {
		child, err := s.outline(ectx, sub)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
