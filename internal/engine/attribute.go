package engine

import (
	"encoding/json"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// PropertyAttribute is the resolved property attached to a component.
type PropertyAttribute struct {
	Name string

	property lattice.Element
	set      bool
}

// NewPropertyAttribute returns an attribute with no property.
func NewPropertyAttribute(name string) *PropertyAttribute {
	return &PropertyAttribute{Name: name}
}

// Expression renders the property, or "" when none is set.
func (a *PropertyAttribute) Expression() string {
	if !a.set {
		return ""
	}
	return a.property.Name()
}

// SetProperty stores the property.
func (a *PropertyAttribute) SetProperty(e lattice.Element) {
	a.property, a.set = e, true
}

// Property returns the stored property.
func (a *PropertyAttribute) Property() (lattice.Element, bool) {
	return a.property, a.set
}

// Validate accepts every value.
func (a *PropertyAttribute) Validate() error {
	return nil
}

// Visibility is always full.
func (a *PropertyAttribute) Visibility() ir.Visibility {
	return ir.VisibilityFull
}

type propertyAttributeJSON struct {
	Name     string `json:"name"`
	Property string `json:"property"`
}

// MarshalJSON renders null while the property is unset.
func (a *PropertyAttribute) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return json.Marshal(propertyAttributeJSON{Name: a.Name, Property: a.Expression()})
}
