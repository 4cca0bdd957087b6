package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/roach88/propsolve/internal/solver"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tree <model-dir>",
		Short: "Show the helper tree with constraint counts",
		Long: `Resolve a model without recording it and print its helper tree.

Each helper shows its kind, the constraints it produced itself and the
constraints it collected from its sub-helpers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Solver, "solver", "", "solver name overriding the solver block")
	return cmd
}

func runTree(ctx context.Context, opts *InspectOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rep, err := resolveDir(ctx, formatter, opts, dir, true)
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.Success(rep.Outline)
	}

	fmt.Fprint(formatter.Writer, renderOutline(rep.Outline))
	return nil
}

// renderOutline draws a helper tree.
func renderOutline(root *solver.HelperOutline) string {
	tree := treeprint.NewWithRoot(outlineLabel(*root))
	addOutline(tree, root.Children)
	return tree.String()
}

func addOutline(tree treeprint.Tree, nodes []solver.HelperOutline) {
	for _, n := range nodes {
		if len(n.Children) == 0 {
			tree.AddNode(outlineLabel(n))
			continue
		}
		addOutline(tree.AddBranch(outlineLabel(n)), n.Children)
	}
}

func outlineLabel(n solver.HelperOutline) string {
	return fmt.Sprintf("%s (%s) own=%d sub=%d", n.Component, n.Kind, n.Own, n.Sub)
}
