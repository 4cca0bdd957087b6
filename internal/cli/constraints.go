package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/propsolve/internal/compiler"
	"github.com/roach88/propsolve/internal/engine"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/solver"
)

// InspectOptions holds flags for the commands that resolve a model without
// recording it.
type InspectOptions struct {
	*RootOptions
	Solver string
}

// ConstraintsResult is the JSON payload of the constraints command.
type ConstraintsResult struct {
	Model       string   `json:"model"`
	Solver      string   `json:"solver"`
	Digest      string   `json:"digest"`
	Constraints []string `json:"constraints"`
}

// NewConstraintsCommand creates the constraints command.
func NewConstraintsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "constraints <model-dir>",
		Short: "List the constraints collected for a model",
		Long: `Collect and solve the constraints of a model without recording the pass.

Constraints are listed in collection order: the root helper's own
constraints first, followed by those of its sub-helpers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConstraints(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Solver, "solver", "", "solver name overriding the solver block")
	return cmd
}

func runConstraints(ctx context.Context, opts *InspectOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rep, err := resolveDir(ctx, formatter, opts, dir, false)
	if err != nil {
		return err
	}

	digest, err := ir.ConstraintsDigest(rep.Constraints)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.Format == "json" {
		constraints := rep.Constraints
		if constraints == nil {
			constraints = []string{}
		}
		return formatter.Success(ConstraintsResult{
			Model:       rep.Model,
			Solver:      rep.Solver,
			Digest:      digest,
			Constraints: constraints,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s [%s]: %d constraint(s)\n", rep.Model, rep.Solver, len(rep.Constraints))
	writeConstraints(w, rep.Constraints)
	return nil
}

// resolveDir runs one unrecorded annotate pass over a model directory.
// Failures are reported through f and returned as *ExitError.
func resolveDir(ctx context.Context, f *OutputFormatter, opts *InspectOptions, dir string, outline bool) (*solver.Report, error) {
	loaded, err := LoadDocument(dir)
	if err != nil {
		return nil, loadFailure(f, err)
	}
	doc := loaded.Document
	f.VerboseLog("Loaded %d CUE file(s) from %s", loaded.FileCount, dir)

	if errs := compiler.Validate(doc); len(errs) > 0 {
		return nil, f.Fail(ExitCommandError, errs[0].Code, compiler.AsError(errs).Error(), errs)
	}

	rep, err := solver.NewAnalyzer(solver.WithAnalyzerLogger(opts.logger())).Analyze(ctx, solver.Request{
		Model:   doc.Model,
		Lattice: doc.Lattice,
		Config:  doc.Solver,
		Solver:  opts.Solver,
		Outline: outline,
	})
	if err != nil {
		if engine.IsResolutionError(err) {
			return nil, f.Fail(ExitFailure, ErrCodeResolution, err.Error(), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return rep, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
