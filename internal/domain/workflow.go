package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gooze.dev/pkg/unitmut/internal/adapter"
	"gooze.dev/pkg/unitmut/internal/controller"
	m "gooze.dev/pkg/unitmut/internal/model"
	"gooze.dev/pkg/unitmut/pkg"
)

// RunArgs contains the arguments for a mutation run.
type RunArgs struct {
	Paths           []m.Path
	Tests           []m.Path
	Exclude         []string
	Reports         m.Path
	Threads         uint
	ShardIndex      uint
	TotalShardCount uint
	Operators       []string
	Runner          m.RunnerConfig
	CoverageDB      string
	SpillDir        string
}

// ListArgs contains the arguments for listing mutants.
type ListArgs struct {
	Paths     []m.Path
	Exclude   []string
	Operators []string
}

// UnitsArgs contains the arguments for listing test units.
type UnitsArgs struct {
	Tests     []m.Path
	Exclude   []string
	Framework m.Framework
}

// ViewArgs contains the arguments for displaying a saved report.
type ViewArgs struct {
	Reports    m.Path
	MutantID   string
	CoverageDB string
}

// Workflow drives the unitmut commands.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	List(ctx context.Context, args ListArgs) error
	Units(ctx context.Context, args UnitsArgs) error
	View(ctx context.Context, args ViewArgs) error
}

// RunnerFactory builds a test runner for a configuration.
type RunnerFactory func(cfg m.RunnerConfig) (TestRunner, error)

// CoverageOpener opens the coverage store at path.
type CoverageOpener func(path string) (adapter.CoverageStore, error)

// NewRunnerFactory returns a RunnerFactory wiring the local executor,
// artifact store and suite parser of the configured framework.
func NewRunnerFactory(fs adapter.SourceFSAdapter, goFiles adapter.GoFileAdapter) RunnerFactory {
	return func(cfg m.RunnerConfig) (TestRunner, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		executor, err := adapter.NewTestExecutor(cfg.Framework, fs)
		if err != nil {
			return nil, err
		}

		parser, err := adapter.NewSuiteParser(cfg.Framework, goFiles)
		if err != nil {
			return nil, err
		}

		return NewTestRunner(cfg, executor, adapter.NewLocalArtifactStore(), fs, parser)
	}
}

// OpenSQLiteCoverage is the default CoverageOpener.
func OpenSQLiteCoverage(path string) (adapter.CoverageStore, error) {
	store, err := adapter.NewSQLiteCoverageStore(path)
	if err != nil {
		return nil, err
	}

	return store, nil
}

type workflow struct {
	adapter.ReportStore
	adapter.SourceFSAdapter
	controller.UI
	goFiles  adapter.GoFileAdapter
	runners  RunnerFactory
	coverage CoverageOpener
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	goFiles adapter.GoFileAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	runners RunnerFactory,
	coverage CoverageOpener,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		goFiles:         goFiles,
		runners:         runners,
		coverage:        coverage,
	}
}

// plannedMutant is a mutant with the test files that exercise its source and
// its position in generation order.
type plannedMutant struct {
	index  int
	mutant m.Mutant
	tests  []m.Path
}

func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	runner, err := w.runners(args.Runner)
	if err != nil {
		return fmt.Errorf("build test runner: %w", err)
	}

	mutagen, err := w.mutagen(args.Operators)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithTestMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.Close(ctx)
		w.Wait(ctx)
	}()

	sources, err := w.collectSources(ctx, args.Paths, args.Exclude)
	if err != nil {
		return err
	}

	testsBySource, allTests, err := w.mapTests(ctx, args, sources)
	if err != nil {
		return err
	}

	orchestrator := NewOrchestrator(w.SourceFSAdapter, runner)

	if len(allTests) > 0 {
		baseline, err := orchestrator.Baseline(ctx, sources, allTests)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}

		w.DisplayBaseline(ctx, baseline)
	}

	planned, err := w.planMutants(ctx, mutagen, sources, testsBySource)
	if err != nil {
		return err
	}

	planned = shardMutants(planned, args.ShardIndex, args.TotalShardCount)
	threads := workerCount(args.Threads)

	w.DisplayConcurrencyInfo(ctx, threads, int(args.ShardIndex), int(max(args.TotalShardCount, 1)))
	w.DisplayUpcomingTestsInfo(ctx, len(planned))

	coverage, runID, err := w.openCoverage(ctx, args.CoverageDB)
	if err != nil {
		return err
	}

	if coverage != nil {
		defer func() {
			if err := coverage.Close(); err != nil {
				slog.Error("Failed to close coverage store", "path", args.CoverageDB, "error", err)
			}
		}()
	}

	spill, err := pkg.NewFileSpill[m.Verdict](args.SpillDir)
	if err != nil {
		return fmt.Errorf("create verdict spill: %w", err)
	}

	defer func() {
		if err := spill.Remove(); err != nil {
			slog.Error("Failed to remove verdict spill", "path", spill.Path(), "error", err)
		}
	}()

	sink := newOrderedSink(spill)
	testErrs := w.testMutants(ctx, orchestrator, planned, threads, sink, coverage, runID)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := sink.Err(); err != nil {
		return fmt.Errorf("spill verdicts: %w", err)
	}

	if err := w.finish(ctx, runID, spill, args.Reports); err != nil {
		return err
	}

	if len(testErrs) > 0 {
		return fmt.Errorf("%d mutant(s) could not be tested: %w", len(testErrs), errors.Join(testErrs...))
	}

	return nil
}

func (w *workflow) testMutants(
	ctx context.Context,
	orchestrator Orchestrator,
	planned []plannedMutant,
	threads int,
	sink *orderedSink,
	coverage adapter.CoverageStore,
	runID string,
) []error {
	var (
		group    errgroup.Group
		errorsMu sync.Mutex
		testErrs []error
	)

	group.SetLimit(threads)

	slots := make(chan int, threads)
	for i := range threads {
		slots <- i
	}

	for position, item := range planned {
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			slot := <-slots
			defer func() { slots <- slot }()

			w.DisplayStartingTestInfo(ctx, item.mutant, slot)

			verdict, results, err := orchestrator.TestMutant(ctx, item.mutant, item.tests)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}

				slog.Error("Failed to test mutant", "mutant", item.mutant.ID, "source", item.mutant.Source, "error", err)

				errorsMu.Lock()
				testErrs = append(testErrs, fmt.Errorf("mutant %s: %w", item.mutant.ID, err))
				errorsMu.Unlock()
			}

			if coverage != nil {
				if err := coverage.Record(ctx, runID, verdict, results); err != nil {
					slog.Error("Failed to record coverage", "mutant", item.mutant.ID, "error", err)
				}
			}

			sink.Add(position, verdict)
			w.DisplayCompletedTestInfo(ctx, item.mutant, verdict)

			return nil
		})
	}

	_ = group.Wait()

	return testErrs
}

func (w *workflow) finish(ctx context.Context, runID string, spill pkg.FileSpill[m.Verdict], reports m.Path) error {
	counts, err := mutationScoreFromSpill(spill)
	if err != nil {
		return fmt.Errorf("compute mutation score: %w", err)
	}

	if reports != "" {
		verdicts, err := spill.Collect()
		if err != nil {
			return fmt.Errorf("read verdicts: %w", err)
		}

		report := m.Report{
			RunID:     runID,
			CreatedAt: time.Now().UTC(),
			Score:     counts.Score(),
			Verdicts:  verdicts,
		}

		if err := w.SaveReport(reports, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}

	w.DisplayMutationScore(ctx, counts.Score())

	return nil
}

func (w *workflow) openCoverage(ctx context.Context, path string) (adapter.CoverageStore, string, error) {
	if path == "" || w.coverage == nil {
		return nil, uuid.NewString(), nil
	}

	store, err := w.coverage(path)
	if err != nil {
		return nil, "", fmt.Errorf("open coverage store: %w", err)
	}

	runID, err := store.BeginRun(ctx)
	if err != nil {
		_ = store.Close()
		return nil, "", fmt.Errorf("begin coverage run: %w", err)
	}

	return store, runID, nil
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	mutagen, err := w.mutagen(args.Operators)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.Close(ctx)
		w.Wait(ctx)
	}()

	sources, err := w.collectSources(ctx, args.Paths, args.Exclude)
	if err != nil {
		return w.DisplayMutants(ctx, nil, err)
	}

	planned, err := w.planMutants(ctx, mutagen, sources, nil)

	mutants := make([]m.Mutant, 0, len(planned))
	for _, item := range planned {
		mutants = append(mutants, item.mutant)
	}

	return w.DisplayMutants(ctx, mutants, err)
}

func (w *workflow) Units(ctx context.Context, args UnitsArgs) error {
	parser, err := adapter.NewSuiteParser(args.Framework, w.goFiles)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.Close(ctx)
		w.Wait(ctx)
	}()

	tests, err := w.Collect(ctx, args.Tests, args.Exclude...)
	if err != nil {
		return w.DisplayUnits(ctx, nil, err)
	}

	units := []m.TestUnit{}

	for _, test := range tests {
		if !isTestFile(args.Framework, test) {
			continue
		}

		content, err := w.ReadFile(ctx, test)
		if err != nil {
			return w.DisplayUnits(ctx, nil, fmt.Errorf("read test file %s: %w", test, err))
		}

		tree, err := parser.Parse(ctx, test, content)
		if err != nil {
			return w.DisplayUnits(ctx, nil, fmt.Errorf("parse test file %s: %w", test, err))
		}

		units = append(units, Decompose(tree)...)
	}

	return w.DisplayUnits(ctx, units, nil)
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(args.Reports)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	if args.MutantID != "" {
		report.Verdicts, err = w.selectVerdict(ctx, report.Verdicts, args)
		if err != nil {
			return err
		}
	}

	if err := w.Start(ctx, controller.WithEstimateMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.Close(ctx)
		w.Wait(ctx)
	}()

	return w.DisplayReport(ctx, report)
}

// selectVerdict keeps the verdict of one mutant, matched by ID prefix. Its
// killing units come from the coverage store when one is configured.
func (w *workflow) selectVerdict(ctx context.Context, verdicts []m.Verdict, args ViewArgs) ([]m.Verdict, error) {
	var selected []m.Verdict

	for _, verdict := range verdicts {
		if strings.HasPrefix(verdict.MutantID, args.MutantID) {
			selected = append(selected, verdict)
		}
	}

	if len(selected) != 1 {
		return nil, fmt.Errorf("%w: %d mutants match %q", m.ErrInvalidArgument, len(selected), args.MutantID)
	}

	if args.CoverageDB == "" || w.coverage == nil {
		return selected, nil
	}

	store, err := w.coverage(args.CoverageDB)
	if err != nil {
		return nil, fmt.Errorf("open coverage store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close coverage store", "path", args.CoverageDB, "error", err)
		}
	}()

	killers, err := store.KillersFor(ctx, selected[0].MutantID)
	if err != nil {
		return nil, fmt.Errorf("query killing units: %w", err)
	}

	selected[0].KillingUnits = killers

	return selected, nil
}

func (w *workflow) mutagen(operators []string) (Mutagen, error) {
	registry, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}

	registry, err = registry.Select(operators...)
	if err != nil {
		return nil, err
	}

	return NewMutagen(registry, w.goFiles, w.SourceFSAdapter), nil
}

// collectSources expands paths into the Go files that can be mutated.
func (w *workflow) collectSources(ctx context.Context, paths []m.Path, exclude []string) ([]m.Path, error) {
	if len(paths) == 0 {
		paths = []m.Path{"./..."}
	}

	files, err := w.Collect(ctx, paths, exclude...)
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}

	sources := make([]m.Path, 0, len(files))

	for _, file := range files {
		if filepath.Ext(string(file)) == ".go" && !strings.HasSuffix(string(file), "_test.go") {
			sources = append(sources, file)
		}
	}

	slog.Debug("Collected sources", "paths", paths, "sources", len(sources))

	return sources, nil
}

// mapTests assigns test files to every source. Explicit tests apply to all
// sources; otherwise Go sources use their companion _test.go file.
func (w *workflow) mapTests(ctx context.Context, args RunArgs, sources []m.Path) (map[m.Path][]m.Path, []m.Path, error) {
	testsBySource := make(map[m.Path][]m.Path, len(sources))

	if len(args.Tests) > 0 {
		files, err := w.Collect(ctx, args.Tests, args.Exclude...)
		if err != nil {
			return nil, nil, fmt.Errorf("collect tests: %w", err)
		}

		tests := make([]m.Path, 0, len(files))

		for _, file := range files {
			if isTestFile(args.Runner.Framework, file) {
				tests = append(tests, file)
			}
		}

		for _, source := range sources {
			testsBySource[source] = tests
		}

		return testsBySource, tests, nil
	}

	if args.Runner.Framework != m.FrameworkGo {
		return nil, nil, fmt.Errorf("%w: framework %q needs explicit test files", m.ErrInvalidArgument, args.Runner.Framework)
	}

	var all []m.Path

	for _, source := range sources {
		test, err := w.DetectTestFile(ctx, source)
		if err != nil {
			return nil, nil, fmt.Errorf("detect test file for %s: %w", source, err)
		}

		if test == "" {
			slog.Debug("No test file for source", "source", source)
			continue
		}

		testsBySource[source] = []m.Path{test}
		all = append(all, test)
	}

	return testsBySource, all, nil
}

func (w *workflow) planMutants(ctx context.Context, mutagen Mutagen, sources []m.Path, testsBySource map[m.Path][]m.Path) ([]plannedMutant, error) {
	var planned []plannedMutant

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return planned, err
		}

		mutants, err := mutagen.GenerateMutants(ctx, source)
		if err != nil {
			return planned, fmt.Errorf("generate mutants for %s: %w", source, err)
		}

		for _, mutant := range mutants {
			planned = append(planned, plannedMutant{index: len(planned), mutant: mutant, tests: testsBySource[source]})
		}
	}

	return planned, nil
}

// shardMutants keeps the mutants whose generation index falls in shard.
func shardMutants(planned []plannedMutant, shardIndex, totalShardCount uint) []plannedMutant {
	if totalShardCount <= 1 {
		return planned
	}

	var shard []plannedMutant

	for _, item := range planned {
		if uint(item.index)%totalShardCount == shardIndex {
			shard = append(shard, item)
		}
	}

	return shard
}

func workerCount(threads uint) int {
	if threads == 0 {
		return runtime.NumCPU()
	}

	return int(threads)
}

func isTestFile(framework m.Framework, path m.Path) bool {
	name := filepath.Base(string(path))

	switch framework {
	case m.FrameworkGo:
		return strings.HasSuffix(name, "_test.go")
	case m.FrameworkJasmine:
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		return (ext == ".js" || ext == ".ts" || ext == ".mjs" || ext == ".cjs") &&
			(strings.HasSuffix(stem, ".spec") || strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, "Spec"))
	default:
		return false
	}
}

// orderedSink appends verdicts to a spill in generation order while workers
// complete them in any order.
type orderedSink struct {
	mu      sync.Mutex
	spill   pkg.FileSpill[m.Verdict]
	next    int
	pending map[int]m.Verdict
	err     error
}

func newOrderedSink(spill pkg.FileSpill[m.Verdict]) *orderedSink {
	return &orderedSink{spill: spill, pending: map[int]m.Verdict{}}
}

// Add stores the verdict at position and flushes every verdict that is now
// contiguous with the ones already written.
func (s *orderedSink) Add(position int, verdict m.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[position] = verdict

	for {
		next, ok := s.pending[s.next]
		if !ok {
			return
		}

		delete(s.pending, s.next)
		s.next++

		if s.err != nil {
			continue
		}

		if err := s.spill.Append(next); err != nil {
			s.err = err
		}
	}
}

// Err reports the first spill failure, or a gap left by a skipped position.
func (s *orderedSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	if len(s.pending) > 0 {
		return fmt.Errorf("%d verdict(s) after position %d were never flushed", len(s.pending), s.next)
	}

	return nil
}
