package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionError reports an inequality set the lattice cannot satisfy.
//
// Components lists the full names of the components whose terms appear in
// the unsatisfied inequalities, in the order the inequalities were checked.
type ResolutionError struct {
	Solver     string
	Components []string
	Violations []string
	Message    string
}

func (e *ResolutionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unsatisfiable constraints"
	}
	if len(e.Components) > 0 {
		return fmt.Sprintf("resolution failed (solver=%s): %s: %s", e.Solver, msg, strings.Join(e.Components, ", "))
	}
	return fmt.Sprintf("resolution failed (solver=%s): %s", e.Solver, msg)
}

// Mismatch is one regression difference between a golden and a resolved value.
type Mismatch struct {
	Component string `json:"component"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

func (m Mismatch) String() string {
	expected, actual := m.Expected, m.Actual
	if expected == "" {
		expected = "<none>"
	}
	if actual == "" {
		actual = "<none>"
	}
	return fmt.Sprintf("%s: expected %s, got %s", m.Component, expected, actual)
}

// RegressionTestError reports resolved values that differ from trained ones.
// It is distinct from ResolutionError: resolution itself succeeded.
type RegressionTestError struct {
	Solver     string
	Mismatches []Mismatch
}

func (e *RegressionTestError) Error() string {
	parts := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		parts[i] = m.String()
	}
	return fmt.Sprintf("regression test failed (solver=%s): %d mismatch(es): %s",
		e.Solver, len(e.Mismatches), strings.Join(parts, "; "))
}

// RepresentationError reports an expression that cannot be parsed. It marks
// a modeling defect upstream of the engine and stops constraint generation.
type RepresentationError struct {
	Component  string
	Expression string
	Err        error
}

func (e *RepresentationError) Error() string {
	return fmt.Sprintf("representation defect in %s: cannot parse %q: %v", e.Component, e.Expression, e.Err)
}

func (e *RepresentationError) Unwrap() error {
	return e.Err
}

// IsResolutionError returns true if the error is a resolution failure.
// Uses errors.As to handle wrapped errors.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsRegressionTestError returns true if the error is a regression failure.
func IsRegressionTestError(err error) bool {
	var re *RegressionTestError
	return errors.As(err, &re)
}

// IsRepresentationError returns true if the error is a representation defect.
func IsRepresentationError(err error) bool {
	var re *RepresentationError
	return errors.As(err, &re)
}
