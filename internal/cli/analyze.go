package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/propsolve/internal/compiler"
	"github.com/roach88/propsolve/internal/engine"
	"github.com/roach88/propsolve/internal/solver"
	"github.com/roach88/propsolve/internal/store"
)

// DefaultDBPath is the database used when --db is not given.
const DefaultDBPath = "propsolve.db"

// AnalyzeOptions holds flags for analyze and the mode commands.
type AnalyzeOptions struct {
	*RootOptions
	DB          string // database path, ":memory:" for none kept
	Solver      string // registry name overriding the solver block
	Mode        string // annotate | train | test | manual | clear
	Constraints bool   // include the constraint list in text output
	Jobs        int    // directories analyzed concurrently
}

// AnalyzeEntry is the outcome for one model directory.
type AnalyzeEntry struct {
	Dir    string         `json:"dir"`
	Report *solver.Report `json:"report,omitempty"`
	Error  *CLIError      `json:"error,omitempty"`

	exitCode int
}

// AnalyzeResult holds the outcome of one analyze invocation.
type AnalyzeResult struct {
	Entries []AnalyzeEntry `json:"entries"`
	Failed  int            `json:"failed"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <model-dir>...",
		Short: "Resolve the properties of one or more models",
		Long: `Resolve the properties of each model directory and record the pass.

Each directory holds a CUE package with lattice, model and an optional
solver block. Directories are analyzed concurrently; every pass is
recorded in the database.

Exit codes:
  0 - All models resolved
  1 - Unsatisfied constraints or a regression in test mode
  2 - Command error (invalid paths, bad documents, database errors)

Examples:
  propsolve analyze ./models/pipeline
  propsolve analyze ./models/* --mode train --db results.db
  propsolve analyze ./models/fsm --solver constraint-greatest --constraints`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := solver.ParseMode(opts.Mode)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return runAnalyze(cmd.Context(), opts, mode, args, cmd)
		},
	}

	addAnalyzeFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Mode, "mode", string(solver.ModeAnnotate), "pass mode (annotate|train|test|manual|clear)")

	return cmd
}

// NewModeCommand creates a command running analyze in a fixed mode.
func NewModeCommand(rootOpts *RootOptions, mode solver.Mode) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts, Mode: string(mode)}

	short := map[solver.Mode]string{
		solver.ModeTrain: "Resolve models and store the results as golden values",
		solver.ModeTest:  "Resolve models and compare the results with golden values",
		solver.ModeClear: "Remove attached results and golden values",
	}[mode]

	cmd := &cobra.Command{
		Use:           string(mode) + " <model-dir>...",
		Short:         short,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts, mode, args, cmd)
		},
	}

	addAnalyzeFlags(cmd, opts)
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command, opts *AnalyzeOptions) {
	cmd.Flags().StringVar(&opts.DB, "db", DefaultDBPath, "path to the SQLite database")
	cmd.Flags().StringVar(&opts.Solver, "solver", "", "solver name overriding the solver block (see 'propsolve solvers')")
	cmd.Flags().BoolVar(&opts.Constraints, "constraints", false, "list the collected constraints")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "directories analyzed concurrently")
}

func runAnalyze(ctx context.Context, opts *AnalyzeOptions, mode solver.Mode, dirs []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	analyzer := solver.NewAnalyzer(
		solver.WithRecorder(st),
		solver.WithGoldenStore(st),
		solver.WithClock(solver.NewClockAt(maxSeq)),
		solver.WithAnalyzerLogger(logger),
	)

	result := AnalyzeResult{Entries: make([]AnalyzeEntry, len(dirs))}
	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			result.Entries[i] = analyzeDir(gctx, analyzer, opts.Solver, mode, dir, logger)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "analysis interrupted", err)
	}

	exitCode := ExitSuccess
	for _, e := range result.Entries {
		if e.Error != nil {
			result.Failed++
			exitCode = max(exitCode, e.exitCode)
		}
	}

	if err := outputAnalyze(formatter, result, opts.Constraints); err != nil {
		return err
	}
	if exitCode != ExitSuccess {
		return NewExitError(exitCode, fmt.Sprintf("%d of %d model(s) failed", result.Failed, len(dirs)))
	}
	return nil
}

// analyzeDir loads, validates and analyzes one model directory.
func analyzeDir(ctx context.Context, a *solver.Analyzer, solverName string, mode solver.Mode, dir string, logger *zap.Logger) AnalyzeEntry {
	entry := AnalyzeEntry{Dir: dir}

	loaded, err := LoadDocument(dir)
	if err != nil {
		entry.Error = &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			entry.Error = &CLIError{Code: loadErr.Code, Message: loadErr.Detail()}
		}
		entry.exitCode = ExitCommandError
		return entry
	}
	doc := loaded.Document

	if errs := compiler.Validate(doc); len(errs) > 0 {
		entry.Error = &CLIError{Code: errs[0].Code, Message: compiler.AsError(errs).Error(), Details: errs}
		entry.exitCode = ExitCommandError
		return entry
	}
	for _, loop := range compiler.AnalyzeFeedback(&doc.Model) {
		logger.Info(loop.Message, zap.String("dir", dir), zap.Strings("path", loop.Path))
	}

	rep, err := a.Analyze(ctx, solver.Request{
		Model:   doc.Model,
		Lattice: doc.Lattice,
		Config:  doc.Solver,
		Solver:  solverName,
		Mode:    mode,
	})
	entry.Report = rep
	switch {
	case err == nil:
	case engine.IsRegressionTestError(err):
		entry.Error = &CLIError{Code: ErrCodeRegression, Message: err.Error()}
		entry.exitCode = ExitFailure
	case engine.IsResolutionError(err):
		var re *engine.ResolutionError
		errors.As(err, &re)
		entry.Error = &CLIError{Code: ErrCodeResolution, Message: err.Error(), Details: re.Violations}
		entry.exitCode = ExitFailure
	default:
		entry.Error = &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
		entry.exitCode = ExitCommandError
	}
	return entry
}

func outputAnalyze(f *OutputFormatter, result AnalyzeResult, withConstraints bool) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			for _, e := range result.Entries {
				if e.Error != nil {
					resp.Error = e.Error
					break
				}
			}
		}
		return f.encode(resp)
	}

	w := f.Writer
	for _, e := range result.Entries {
		switch {
		case e.Error == nil:
			if err := writeReport(w, e.Dir, e.Report, withConstraints); err != nil {
				return err
			}
		case e.Report != nil && len(e.Report.Mismatches) > 0:
			writeMismatches(w, e.Report)
		default:
			fmt.Fprintf(w, "✗ %s\n", e.Dir)
			for _, line := range strings.Split(strings.TrimSpace(e.Error.Message), "\n") {
				fmt.Fprintf(w, "  [%s] %s\n", e.Error.Code, strings.TrimSpace(line))
			}
		}
	}
	if result.Failed > 0 {
		fmt.Fprintf(w, "\n%d of %d model(s) failed\n", result.Failed, len(result.Entries))
	}
	return nil
}
