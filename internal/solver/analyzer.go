package solver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/propsolve/internal/engine"
	"github.com/roach88/propsolve/internal/graph"
	"github.com/roach88/propsolve/internal/ir"
	"github.com/roach88/propsolve/internal/lattice"
)

// ErrNoGoldenStore is returned by train and test passes without a golden store.
var ErrNoGoldenStore = errors.New("mode requires a golden store")

// Recorder persists analysis passes.
type Recorder interface {
	RecordPass(ctx context.Context, rec ir.PassRecord) error
	// LastProperties returns the properties of the latest successful pass
	// of a model under a solver. ok is false when there is none.
	LastProperties(ctx context.Context, model, solver string) (props map[string]string, ok bool, err error)
}

// GoldenStore keeps trained results keyed by model hash and solver.
type GoldenStore interface {
	Golden(ctx context.Context, modelHash, solver string) (map[string]string, error)
	SaveGolden(ctx context.Context, modelHash, solver string, props map[string]string) error
	ClearGolden(ctx context.Context, modelHash, solver string) error
}

// Request is one analysis to run.
type Request struct {
	Model   ir.Model
	Lattice ir.LatticeSpec
	Config  ir.SolverConfig
	// Solver overrides the registry name derived from Config.
	Solver string
	Mode   Mode
	// Outline asks for the helper tree of the pass.
	Outline bool
}

// Report is the outcome of one analysis.
type Report struct {
	PassID       string              `json:"pass_id"`
	Seq          int64               `json:"seq"`
	Model        string              `json:"model"`
	Solver       string              `json:"solver"`
	Mode         Mode                `json:"mode"`
	ModelHash    string              `json:"model_hash"`
	ResultDigest string              `json:"result_digest,omitempty"`
	Constraints  []string            `json:"constraints,omitempty"`
	Properties   map[string]string   `json:"properties,omitempty"`
	Changed      []ir.PropertyChange `json:"changed,omitempty"`
	Stats        map[string]int      `json:"stats,omitempty"`
	Mismatches   []engine.Mismatch   `json:"mismatches,omitempty"`
	Outline      *HelperOutline      `json:"outline,omitempty"`
}

// Analyzer drives solvers for the CLI and the harness.
type Analyzer struct {
	logger   *zap.Logger
	recorder Recorder
	golden   GoldenStore
	passIDs  PassIDGenerator
	clock    *Clock
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets the logger passed to solvers.
func WithAnalyzerLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder persists every pass.
func WithRecorder(r Recorder) AnalyzerOption {
	return func(a *Analyzer) { a.recorder = r }
}

// WithGoldenStore enables train and test modes.
func WithGoldenStore(g GoldenStore) AnalyzerOption {
	return func(a *Analyzer) { a.golden = g }
}

// WithPassIDGenerator replaces the UUIDv7 pass id generator.
func WithPassIDGenerator(g PassIDGenerator) AnalyzerOption {
	return func(a *Analyzer) { a.passIDs = g }
}

// WithClock sets the pass sequence clock.
func WithClock(c *Clock) AnalyzerOption {
	return func(a *Analyzer) { a.clock = c }
}

// NewAnalyzer creates an analyzer with no persistence.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger:  zap.NewNop(),
		passIDs: UUIDv7Generator{},
		clock:   NewClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs one request. A regression in test mode returns both the
// report and a *engine.RegressionTestError. The solver state is always
// reset before returning.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeAnnotate
	}
	if (mode == ModeTrain || mode == ModeTest) && a.golden == nil {
		return nil, fmt.Errorf("%s: %w", mode, ErrNoGoldenStore)
	}

	lat, err := lattice.NewFinite(req.Lattice)
	if err != nil {
		return nil, fmt.Errorf("build lattice: %w", err)
	}
	g, err := graph.Build(req.Model)
	if err != nil {
		return nil, err
	}
	name := req.Solver
	if name == "" {
		name = NameFor(req.Config)
	}
	ctor, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown solver %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	hash, err := ir.ModelHash(req.Model, req.Lattice, req.Config)
	if err != nil {
		return nil, fmt.Errorf("hash model: %w", err)
	}

	s := ctor(lat, req.Config, WithLogger(a.logger))
	s.Bind(g)
	defer s.Reset()

	rep := &Report{
		PassID:    a.passIDs.Generate(),
		Seq:       a.clock.Next(),
		Model:     req.Model.Name,
		Solver:    name,
		Mode:      mode,
		ModelHash: hash,
	}
	log := a.logger.With(
		zap.String("pass", rep.PassID),
		zap.String("model", rep.Model),
		zap.String("solver", name),
		zap.String("mode", string(mode)))

	if mode == ModeClear {
		s.ClearAll()
		if a.golden != nil {
			if err := a.golden.ClearGolden(ctx, hash, name); err != nil {
				return nil, fmt.Errorf("clear golden: %w", err)
			}
		}
		log.Info("cleared")
		return rep, a.record(ctx, rep, ir.PassOK, "")
	}

	res, err := s.Resolve(ctx, mode.engineMode())
	if err != nil {
		log.Warn("resolution failed", zap.Error(err))
		if recErr := a.record(ctx, rep, ir.PassFailed, err.Error()); recErr != nil {
			return nil, errors.Join(err, recErr)
		}
		return nil, err
	}

	rep.Constraints = res.Constraints
	rep.Properties = res.Properties
	rep.Changed = res.Changed
	rep.Stats = res.Stats
	rep.ResultDigest, err = ir.ResultDigest(res.Properties)
	if err != nil {
		return nil, fmt.Errorf("digest result: %w", err)
	}
	if req.Outline {
		if rep.Outline, err = s.Outline(); err != nil {
			return nil, fmt.Errorf("outline: %w", err)
		}
	}

	if a.recorder != nil {
		prev, ok, err := a.recorder.LastProperties(ctx, rep.Model, name)
		if err != nil {
			return nil, fmt.Errorf("read previous properties: %w", err)
		}
		if ok {
			rep.Changed = Diff(prev, res.Properties)
		}
	}

	switch mode {
	case ModeTrain:
		if err := a.golden.SaveGolden(ctx, hash, name, res.Properties); err != nil {
			return nil, fmt.Errorf("save golden: %w", err)
		}
	case ModeTest:
		golden, err := a.golden.Golden(ctx, hash, name)
		if err != nil {
			return nil, fmt.Errorf("read golden: %w", err)
		}
		if mismatches := Compare(golden, res.Properties); len(mismatches) > 0 {
			rep.Mismatches = mismatches
			regression := &engine.RegressionTestError{Solver: name, Mismatches: mismatches}
			log.Warn("regression detected", zap.Int("mismatches", len(mismatches)))
			if err := a.record(ctx, rep, ir.PassRegression, regression.Error()); err != nil {
				return rep, errors.Join(regression, err)
			}
			return rep, regression
		}
	}

	log.Info("resolved",
		zap.Int("constraints", len(rep.Constraints)),
		zap.Int("properties", len(rep.Properties)),
		zap.Int("changed", len(rep.Changed)))
	return rep, a.record(ctx, rep, ir.PassOK, "")
}

func (a *Analyzer) record(ctx context.Context, rep *Report, status ir.PassStatus, msg string) error {
	if a.recorder == nil {
		return nil
	}
	rec := ir.PassRecord{
		ID:           rep.PassID,
		Seq:          rep.Seq,
		Model:        rep.Model,
		ModelHash:    rep.ModelHash,
		Solver:       rep.Solver,
		Mode:         string(rep.Mode),
		Status:       status,
		ResultDigest: rep.ResultDigest,
		Constraints:  len(rep.Constraints),
		Error:        msg,
		Properties:   rep.Properties,
		Stats:        rep.Stats,
	}
	if err := a.recorder.RecordPass(ctx, rec); err != nil {
		return fmt.Errorf("record pass: %w", err)
	}
	return nil
}

// Compare lists the differences between golden and resolved properties,
// sorted by component. A component missing on either side is a mismatch.
func Compare(golden, actual map[string]string) []engine.Mismatch {
	var out []engine.Mismatch
	for _, name := range unionKeys(golden, actual) {
		if golden[name] != actual[name] {
			out = append(out, engine.Mismatch{Component: name, Expected: golden[name], Actual: actual[name]})
		}
	}
	return out
}

// Diff lists the components whose property changed between two passes.
func Diff(previous, current map[string]string) []ir.PropertyChange {
	var out []ir.PropertyChange
	for _, name := range unionKeys(previous, current) {
		if previous[name] != current[name] {
			out = append(out, ir.PropertyChange{Component: name, Previous: previous[name], Current: current[name]})
		}
	}
	return out
}

func unionKeys(a, b map[string]string) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
