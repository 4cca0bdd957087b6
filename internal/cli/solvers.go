package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/solver"
)

// SolversResult is the JSON payload of the solvers command.
type SolversResult struct {
	Solvers         []string `json:"solvers"`
	Default         string   `json:"default"`
	ConstraintTypes []string `json:"constraint_types"`
	Modes           []string `json:"modes"`
}

// NewSolversCommand creates the solvers command.
func NewSolversCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "solvers",
		Short:         "List registered solvers, constraint types and modes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolvers(rootOpts, cmd)
		},
	}
}

func runSolvers(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := SolversResult{
		Solvers: solver.Names(),
		Default: ir.DefaultSolverName,
	}
	for _, ct := range ir.ConstraintTypes {
		result.ConstraintTypes = append(result.ConstraintTypes, ct.String())
	}
	for _, m := range solver.Modes {
		result.Modes = append(result.Modes, string(m))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "Solvers:")
	for _, name := range result.Solvers {
		marker := " "
		if name == result.Default {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %s\n", marker, name)
	}
	fmt.Fprintln(w, "Constraint types:")
	for _, ct := range result.ConstraintTypes {
		fmt.Fprintf(w, "    %s\n", ct)
	}
	fmt.Fprintln(w, "Modes:")
	for _, m := range result.Modes {
		fmt.Fprintf(w, "    %s\n", m)
	}
	return nil
}
