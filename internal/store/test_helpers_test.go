package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/propsolve/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPass creates a successful annotate pass with minimal fields.
func createTestPass(id, model string, seq int64, props map[string]string) ir.PassRecord {
	return ir.PassRecord{
		ID:          id,
		Seq:         seq,
		Model:       model,
		ModelHash:   "test-hash",
		Solver:      "constraint",
		Mode:        "annotate",
		Status:      ir.PassOK,
		Constraints: len(props),
		Properties:  props,
		Stats:       map[string]int{"# of constraints": len(props)},
	}
}
