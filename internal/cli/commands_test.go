package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propsolve/internal/compiler"
	"github.com/roach88/propsolve/internal/ir"
)

func TestConstraintsText(t *testing.T) {
	out, err := runCommand(t, "constraints", pipelineDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "pipeline [constraint]: 1 constraint(s)")
	assert.Contains(t, out, "1. top.A.out <= top.B.in")
}

func TestConstraintsJSON(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "constraints", pipelineDir(t))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   ConstraintsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pipeline", resp.Data.Model)
	assert.Equal(t, []string{"top.A.out <= top.B.in"}, resp.Data.Constraints)

	digest, err := ir.ConstraintsDigest(resp.Data.Constraints)
	require.NoError(t, err)
	assert.Equal(t, digest, resp.Data.Digest)
}

func TestConstraintsEmptyList(t *testing.T) {
	discipline := `
solver: {
	actor_constraint: "SRC_EQUALS_GREATER"
	composite_constraint: "SRC_EQUALS_GREATER"
}
`
	out, err := runCommand(t, "--format", "json", "constraints", writeModelDir(t, typesLattice, pipelineModel, discipline))
	require.NoError(t, err)
	assert.Contains(t, out, `"constraints": []`)
}

func TestConstraintsBadSolverBlock(t *testing.T) {
	out, err := runCommand(t, "constraints", writeModelDir(t, typesLattice, pipelineModel, `solver: fixed_point: 3`))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeSolver)
	assert.Contains(t, out, "Error ["+ErrCodeSolver+"]")
}

func TestConstraintsEmptyDirectory(t *testing.T) {
	out, err := runCommand(t, "constraints", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestTreeText(t *testing.T) {
	out, err := runCommand(t, "tree", pipelineDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "top (composite) own=1 sub=0")
	assert.Contains(t, out, "top.A (atomic) own=0 sub=0")
	assert.Contains(t, out, "top.B (atomic) own=0 sub=0")
}

func TestTreeJSON(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "tree", pipelineDir(t))
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Component string `json:"component"`
			Own       int    `json:"own"`
			Children  []struct {
				Component string `json:"component"`
			} `json:"children"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "top", resp.Data.Component)
	assert.Equal(t, 1, resp.Data.Own)
	assert.Len(t, resp.Data.Children, 2)
}

func TestSolvers(t *testing.T) {
	out, err := runCommand(t, "solvers")
	require.NoError(t, err)
	assert.Contains(t, out, "* constraint\n")
	assert.Contains(t, out, "constraint-greatest")
	assert.Contains(t, out, "SRC_EQUALS_GREATER")
	assert.Contains(t, out, "annotate")

	out, err = runCommand(t, "--format", "json", "solvers")
	require.NoError(t, err)
	var resp struct {
		Data SolversResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ir.DefaultSolverName, resp.Data.Default)
	assert.Contains(t, resp.Data.Solvers, "constraint-greatest")
	assert.Len(t, resp.Data.ConstraintTypes, len(ir.ConstraintTypes))
}

func TestValidateValid(t *testing.T) {
	dir := pipelineDir(t)
	out, err := runCommand(t, "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+dir+" valid")
}

func TestValidateReportsFeedbackLoops(t *testing.T) {
	out, err := runCommand(t, "validate", writeModelDir(t, typesLattice, loopModel))
	require.NoError(t, err)
	assert.Contains(t, out, "info: ")
}

func TestValidateUnknownElement(t *testing.T) {
	bad := `
model: {
	name: "bad"
	actors: A: ports: out: {direction: "output", property: "Complex"}
}
`
	out, err := runCommand(t, "validate", pipelineDir(t), writeModelDir(t, typesLattice, bad))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, out, compiler.ErrUnknownElement)
	assert.Contains(t, out, "top.A.ports.out.property")
}

func TestValidateJSON(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "validate", "/nonexistent/models")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestFindCUEFiles(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.cue"), []byte("package model"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.cue"), []byte("package model"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644))

	files, err := FindCUEFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestLoadDocument(t *testing.T) {
	dir := pipelineDir(t)

	loaded, err := LoadDocument(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, loaded.Dir)
	assert.Equal(t, 2, loaded.FileCount)
	assert.Equal(t, "pipeline", loaded.Document.Model.Name)
	assert.Equal(t, "types", loaded.Document.Lattice.Name)
	assert.Equal(t, ir.DefaultSolverConfig(), loaded.Document.Solver)
}

func TestLoadDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{"missing", func(t *testing.T) string { return "/nonexistent/models" }, ErrCodeNotFound},
		{"empty", func(t *testing.T) string { return t.TempDir() }, ErrCodeNoFiles},
		{"no model", func(t *testing.T) string { return writeModelDir(t, typesLattice) }, ErrCodeModel},
		{"no lattice", func(t *testing.T) string { return writeModelDir(t, pipelineModel) }, ErrCodeLattice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocument(tt.dir(t))
			require.Error(t, err)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}
