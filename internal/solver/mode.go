package solver

import (
	"fmt"
	"strings"

	"github.com/roach88/propsolve/internal/engine"
)

// Mode selects what an analysis pass does with its results.
type Mode string

const (
	// ModeAnnotate resolves properties and attaches them.
	ModeAnnotate Mode = "annotate"
	// ModeTrain resolves and stores the results as golden values.
	ModeTrain Mode = "train"
	// ModeTest resolves and compares the results with the golden values.
	ModeTest Mode = "test"
	// ModeManualAnnotate only evaluates manual annotations.
	ModeManualAnnotate Mode = "manual"
	// ModeClear removes attached results and golden values.
	ModeClear Mode = "clear"
)

// Modes lists the valid modes.
var Modes = []Mode{ModeAnnotate, ModeTrain, ModeTest, ModeManualAnnotate, ModeClear}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// engineMode maps a solver mode to the engine's pass mode.
func (m Mode) engineMode() engine.Mode {
	switch m {
	case ModeTrain:
		return engine.ModeTrain
	case ModeTest:
		return engine.ModeTest
	case ModeManualAnnotate:
		return engine.ModeManualAnnotate
	default:
		return engine.ModeAnnotate
	}
}
