package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/propsolve/internal/compiler"
)

// DirValidation holds the validation results of one model directory.
type DirValidation struct {
	Dir    string                     `json:"dir"`
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
	Loops  []compiler.FeedbackLoop    `json:"feedback_loops,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool            `json:"valid"`
	Dirs  []DirValidation `json:"dirs"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model-dir>...",
		Short: "Validate model documents without solving",
		Long: `Validate the lattice, model and solver blocks of each model directory.

Performs CUE loading, structural checks and cross-reference checks
without collecting constraints. Feedback loops are reported for
information only.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dirs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true}
	count := 0
	for _, dir := range dirs {
		v := validateDir(dir, formatter)
		if !v.Valid {
			result.Valid = false
			count += len(v.Errors)
		}
		result.Dirs = append(result.Dirs, v)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			first := firstValidationError(result)
			resp.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		outputValidationText(formatter, result)
	}

	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}
	return nil
}

// validateDir loads and validates one directory. Load failures are
// reported as validation errors of the "load" field.
func validateDir(dir string, formatter *OutputFormatter) DirValidation {
	v := DirValidation{Dir: dir, Valid: true}

	loaded, err := LoadDocument(dir)
	if err != nil {
		ve := compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			ve.Message = loadErr.Message
			ve.Code = loadErr.Code
			if loadErr.Pos.IsValid() {
				ve.Line = loadErr.Pos.Line()
			}
		}
		v.Valid = false
		v.Errors = []compiler.ValidationError{ve}
		return v
	}
	formatter.VerboseLog("Validating %s (%d CUE file(s))", dir, loaded.FileCount)

	if errs := compiler.Validate(loaded.Document); len(errs) > 0 {
		v.Valid = false
		v.Errors = errs
	}
	v.Loops = compiler.AnalyzeFeedback(&loaded.Document.Model)
	return v
}

func firstValidationError(result ValidationResult) compiler.ValidationError {
	for _, d := range result.Dirs {
		if len(d.Errors) > 0 {
			return d.Errors[0]
		}
	}
	return compiler.ValidationError{Code: ErrCodeGeneric}
}

func outputValidationText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, d := range result.Dirs {
		if d.Valid {
			fmt.Fprintf(w, "✓ %s valid\n", d.Dir)
		} else {
			fmt.Fprintf(w, "✗ %s\n", d.Dir)
		}
		for _, e := range d.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "  line %d\n", e.Line)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
		for _, loop := range d.Loops {
			fmt.Fprintf(w, "  %s: %s\n", loop.Level, loop.Message)
		}
	}
}
