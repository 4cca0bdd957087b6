package ir

import (
	"fmt"
	"strings"
)

// ConstraintType selects how a component is related to a list of other
// components when constraints are generated.
type ConstraintType int

const (
	ConstraintNone ConstraintType = iota
	ConstraintEquals
	ConstraintSinkEqualsMeet
	ConstraintSrcEqualsMeet
	ConstraintSinkEqualsGreater
	ConstraintSrcEqualsGreater
)

var constraintTypeNames = [...]string{
	ConstraintNone:              "NONE",
	ConstraintEquals:            "EQUALS",
	ConstraintSinkEqualsMeet:    "SINK_EQUALS_MEET",
	ConstraintSrcEqualsMeet:     "SRC_EQUALS_MEET",
	ConstraintSinkEqualsGreater: "SINK_EQUALS_GREATER",
	ConstraintSrcEqualsGreater:  "SRC_EQUALS_GREATER",
}

// ConstraintTypes lists every constraint type in declaration order.
var ConstraintTypes = []ConstraintType{
	ConstraintNone,
	ConstraintEquals,
	ConstraintSinkEqualsMeet,
	ConstraintSrcEqualsMeet,
	ConstraintSinkEqualsGreater,
	ConstraintSrcEqualsGreater,
}

func (c ConstraintType) String() string {
	if c < 0 || int(c) >= len(constraintTypeNames) {
		return fmt.Sprintf("ConstraintType(%d)", int(c))
	}
	return constraintTypeNames[c]
}

// ParseConstraintType parses a constraint type name. Matching is case-insensitive.
func ParseConstraintType(s string) (ConstraintType, error) {
	for i, name := range constraintTypeNames {
		if strings.EqualFold(name, s) {
			return ConstraintType(i), nil
		}
	}
	return ConstraintNone, fmt.Errorf("unknown constraint type %q", s)
}

// IsEquals reports whether the discipline asserts equality.
func (c ConstraintType) IsEquals() bool {
	return c == ConstraintEquals || c == ConstraintSinkEqualsMeet || c == ConstraintSrcEqualsMeet
}

// UsesMeet reports whether the discipline relates a component to the meet of its targets.
func (c ConstraintType) UsesMeet() bool {
	return c == ConstraintSinkEqualsMeet || c == ConstraintSrcEqualsMeet
}

// ConstrainsSource reports whether the discipline orients constraints from
// the source side of a connection.
func (c ConstraintType) ConstrainsSource() bool {
	return c == ConstraintSrcEqualsMeet || c == ConstraintSrcEqualsGreater
}

// MarshalText implements encoding.TextMarshaler.
func (c ConstraintType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ConstraintType) UnmarshalText(text []byte) error {
	parsed, err := ParseConstraintType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
