package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const typesLattice = `
lattice: {
	name: "types"
	elements: ["Unknown", "Boolean", "Int", "Double", "String", "General"]
	order: [
		"Unknown < Boolean",
		"Unknown < Int",
		"Unknown < String",
		"Int < Double",
		"Boolean < General",
		"Double < General",
		"String < General",
	]
	literals: {int: "Int", float: "Double", bool: "Boolean", string: "String"}
}
`

const pipelineModel = `
model: {
	name: "pipeline"
	actors: {
		A: ports: out: {direction: "output", property: "Int"}
		B: ports: "in": "input"
	}
	connections: ["A.out -> B.in"]
}
`

const loopModel = `
model: {
	name: "loop"
	actors: {
		A: ports: {"in": "input", out: "output"}
		B: ports: {"in": "input", out: "output"}
	}
	connections: ["A.out -> B.in", "B.out -> A.in"]
}
`

// writeModelDir writes each source as its own file of package model.
func writeModelDir(t *testing.T, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, src := range sources {
		name := filepath.Join(dir, "part"+string(rune('a'+i))+".cue")
		require.NoError(t, os.WriteFile(name, []byte("package model\n"+src), 0644))
	}
	return dir
}

func pipelineDir(t *testing.T) string {
	return writeModelDir(t, typesLattice, pipelineModel)
}
