package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/propsolve/internal/compiler"
)

// LoadResult contains a model document loaded from a directory.
type LoadResult struct {
	Dir       string
	Document  *compiler.Document
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Detail returns the message prefixed with its file position, without the code.
func (e *LoadError) Detail() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Message)
	}
	return e.Message
}

// LoadDocument loads the CUE package in dir and compiles its lattice,
// model and solver fields. The returned error is always a *LoadError.
func LoadDocument(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing model directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	doc, err := compileDocument(value)
	if err != nil {
		return nil, err
	}

	return &LoadResult{
		Dir:       dir,
		Document:  doc,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
}

// compileDocument compiles each top-level block on its own so a failure
// carries the code of the block it came from.
func compileDocument(value cue.Value) (*compiler.Document, error) {
	modelVal := value.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, &LoadError{Code: ErrCodeModel, Message: "no model found in documents"}
	}
	model, err := compiler.CompileModel(modelVal)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeModel, "model")
	}

	lat, err := compiler.CompileLattice(value.LookupPath(cue.ParsePath("lattice")))
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLattice, "lattice")
	}

	cfg, err := compiler.CompileSolver(value.LookupPath(cue.ParsePath("solver")))
	if err != nil {
		return nil, convertCompileError(err, ErrCodeSolver, "solver")
	}

	return &compiler.Document{Model: *model, Lattice: *lat, Solver: cfg}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, code, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// loadFailure reports a load error through the formatter.
func loadFailure(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Detail(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}
