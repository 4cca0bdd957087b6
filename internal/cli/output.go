package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/roach88/propsolve/internal/solver"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Analysis failure (unsatisfied constraints, regressions, failed scenarios)
	ExitCommandError = 2 // Command error (invalid paths, bad documents, database errors)
)

// Error code constants, unified across all CLI commands. Validation
// failures carry the compiler's E1xx codes instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeStore       = "E007" // Database open or write error
	ErrCodeModel       = "E008" // model block does not compile
	ErrCodeLattice     = "E009" // lattice block does not compile
	ErrCodeSolver      = "E010" // solver block does not compile
	ErrCodeResolution  = "E020" // unsatisfied constraints
	ErrCodeRegression  = "E021" // results differ from golden values
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E102", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports an error and returns the matching ExitError.
func (f *OutputFormatter) Fail(exitCode int, code, message string, details any) error {
	_ = f.Error(code, message, details)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// writeReport renders one analysis report as text.
func writeReport(w io.Writer, dir string, rep *solver.Report, withConstraints bool) error {
	fmt.Fprintf(w, "✓ %s [%s, %s] pass %s\n", rep.Model, rep.Solver, rep.Mode, rep.PassID)
	if dir != "" {
		fmt.Fprintf(w, "  from %s\n", dir)
	}
	if rep.Mode == solver.ModeClear {
		fmt.Fprintln(w, "  cleared attached properties and golden values")
		return nil
	}
	fmt.Fprintf(w, "  %d constraint(s), %d propert(ies)\n", len(rep.Constraints), len(rep.Properties))

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, name := range sortedNames(rep.Properties) {
		fmt.Fprintf(tw, "  %s\t= %s\n", name, rep.Properties[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, c := range rep.Changed {
		prev := c.Previous
		if prev == "" {
			prev = "(none)"
		}
		fmt.Fprintf(w, "  changed %s: %s -> %s\n", c.Component, prev, c.Current)
	}
	if withConstraints {
		writeConstraints(w, rep.Constraints)
	}
	return nil
}

// writeConstraints lists constraints one per line, numbered from 1.
func writeConstraints(w io.Writer, constraints []string) {
	width := len(fmt.Sprint(len(constraints)))
	for i, c := range constraints {
		fmt.Fprintf(w, "  %*d. %s\n", width, i+1, c)
	}
}

// writeMismatches renders a regression as text.
func writeMismatches(w io.Writer, rep *solver.Report) {
	fmt.Fprintf(w, "✗ %s [%s] regression: %d mismatch(es)\n", rep.Model, rep.Solver, len(rep.Mismatches))
	for _, m := range rep.Mismatches {
		fmt.Fprintf(w, "  %s: expected %s, got %s\n", m.Component, orNone(m.Expected), orNone(m.Actual))
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func sortedNames(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
