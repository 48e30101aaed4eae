package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// Orchestrator coordinates applying a mutant to a temporary copy of the
// project and running the corresponding test units to decide whether the
// mutant is killed or survives.
type Orchestrator interface {
	// TestMutant runs tests against mutant in an isolated workspace.
	TestMutant(ctx context.Context, mutant m.Mutant, tests []m.Path) (m.Verdict, []m.TestResult, error)

	// Baseline runs the unmutated suite once. It fails with
	// model.ErrBaselineFailed when any test fails or times out.
	Baseline(ctx context.Context, sources, tests []m.Path) (m.TestResult, error)
}

type orchestrator struct {
	fsAdapter adapter.SourceFSAdapter
	runner    TestRunner
}

// NewOrchestrator constructs an Orchestrator backed by the provided
// filesystem adapter and test runner.
func NewOrchestrator(fsAdapter adapter.SourceFSAdapter, runner TestRunner) Orchestrator {
	return &orchestrator{
		fsAdapter: fsAdapter,
		runner:    runner,
	}
}

func (to *orchestrator) TestMutant(ctx context.Context, mutant m.Mutant, tests []m.Path) (m.Verdict, []m.TestResult, error) {
	if err := validateMutant(mutant); err != nil {
		return errorVerdict(mutant, err), nil, err
	}

	if len(tests) == 0 {
		return Correlate(mutant, nil), nil, nil
	}

	projectRoot, tmpDir, err := to.prepareWorkspace(ctx, mutant.Source)
	if tmpDir != "" {
		defer to.cleanupTempDir(ctx, tmpDir)
	}

	if err != nil {
		return errorVerdict(mutant, err), nil, err
	}

	tmpSourcePath, err := to.buildTempPath(ctx, projectRoot, tmpDir, mutant.Source)
	if err != nil {
		return errorVerdict(mutant, err), nil, err
	}

	if err := to.writeMutatedFile(ctx, tmpSourcePath, mutant.MutatedCode); err != nil {
		return errorVerdict(mutant, err), nil, err
	}

	tmpTests := make([]m.Path, 0, len(tests))
	originals := make(map[m.Path]m.Path, len(tests))

	for _, test := range tests {
		tmpTest, err := to.buildTempPath(ctx, projectRoot, tmpDir, test)
		if err != nil {
			return errorVerdict(mutant, err), nil, err
		}

		tmpTests = append(tmpTests, tmpTest)
		originals[tmpTest] = test
	}

	results, err := to.runner.TestAndCollectCoverage(ctx, []m.Path{tmpSourcePath}, tmpTests)
	if err != nil {
		slog.Error("Failed to run tests for mutant", "mutant", mutant.ID, "source", mutant.Source, "error", err)
		return errorVerdict(mutant, err), nil, err
	}

	restorePaths(results, mutant.Source, originals)

	return Correlate(mutant, results), results, nil
}

func (to *orchestrator) Baseline(ctx context.Context, sources, tests []m.Path) (m.TestResult, error) {
	testFiles := make([]m.TestFile, 0, len(tests))
	for _, test := range tests {
		testFiles = append(testFiles, m.TestFile{Path: test, Name: filepath.Base(string(test)), Origin: test})
	}

	cfg := to.runner.Config()

	result, err := to.runner.Test(ctx, cfg, sources, testFiles)
	if err != nil {
		return result, err
	}

	if result.Failed() || result.TimedOut {
		slog.Error("Baseline test run failed", "failures", result.Failures, "timedOut", result.TimedOut, "output", result.Output)
		return result, fmt.Errorf("%w: %d failing test(s), timed out: %t", m.ErrBaselineFailed, result.Failures, result.TimedOut)
	}

	return result, nil
}

// Correlate aggregates the per-unit results of one mutant into a verdict.
// Result i is attributed to unit index i.
func Correlate(mutant m.Mutant, results []m.TestResult) m.Verdict {
	verdict := m.Verdict{
		MutantID: mutant.ID,
		Source:   mutant.Source,
		Operator: mutant.Operator,
		Line:     mutant.Span.Line,
		Column:   mutant.Span.Column,
		Results:  len(results),
	}

	for i, result := range results {
		if result.Failed() {
			verdict.KillingUnits = append(verdict.KillingUnits, killingUnit(i, result))
		}

		if result.TimedOut {
			verdict.TimedOut = append(verdict.TimedOut, i)
		}
	}

	switch {
	case len(results) == 0:
		verdict.Status = m.Skipped
	case len(verdict.KillingUnits) > 0:
		verdict.Status = m.Killed
	case len(verdict.TimedOut) > 0:
		verdict.Status = m.Timeout
	default:
		verdict.Status = m.Survived
	}

	return verdict
}

func killingUnit(index int, result m.TestResult) m.KillingUnit {
	unit := m.KillingUnit{Index: index}

	if len(result.TestFiles) > 0 {
		unit.Name = result.TestFiles[0].Name
		unit.File = result.TestFiles[0].Origin

		if unit.File == "" {
			unit.File = result.TestFiles[0].Path
		}
	}

	return unit
}

func errorVerdict(mutant m.Mutant, err error) m.Verdict {
	verdict := Correlate(mutant, nil)
	verdict.Status = m.Error
	verdict.Err = err.Error()

	return verdict
}

// restorePaths maps workspace paths in results back to the original project.
func restorePaths(results []m.TestResult, source m.Path, originals map[m.Path]m.Path) {
	for i := range results {
		for j := range results[i].SourceFiles {
			results[i].SourceFiles[j] = source
		}

		for j := range results[i].TestFiles {
			file := &results[i].TestFiles[j]
			if original, ok := originals[file.Origin]; ok {
				file.Origin = original
				file.Path = original
			}
		}
	}
}

func validateMutant(mutant m.Mutant) error {
	if mutant.Source == "" {
		return fmt.Errorf("%w: mutant %q has no source", m.ErrInvalidArgument, mutant.ID)
	}

	if len(mutant.MutatedCode) == 0 {
		return fmt.Errorf("%w: mutant %q has no mutated code", m.ErrInvalidArgument, mutant.ID)
	}

	return nil
}

func (to *orchestrator) prepareWorkspace(ctx context.Context, sourcePath m.Path) (m.Path, m.Path, error) {
	projectRoot, err := to.fsAdapter.FindProjectRoot(ctx, sourcePath)
	if err != nil {
		slog.Error("Failed to find project root", "sourcePath", sourcePath, "error", err)
		return "", "", fmt.Errorf("failed to find project root: %w", err)
	}

	tmpDir, err := to.fsAdapter.CreateTempDir(ctx, "unitmut-mutant-*")
	if err != nil {
		slog.Error("Failed to create temp dir", "error", err)
		return "", "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	if err := to.fsAdapter.CopyDir(ctx, projectRoot, tmpDir); err != nil {
		slog.Error("Failed to copy project to temp dir", "projectRoot", projectRoot, "tmpDir", tmpDir, "error", err)
		return projectRoot, tmpDir, fmt.Errorf("failed to copy project: %w", err)
	}

	return projectRoot, tmpDir, nil
}

func (to *orchestrator) buildTempPath(ctx context.Context, projectRoot, tmpDir, path m.Path) (m.Path, error) {
	relPath, err := to.fsAdapter.RelPath(ctx, projectRoot, path)
	if err != nil {
		slog.Error("Failed to get relative path", "projectRoot", projectRoot, "path", path, "error", err)
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return to.fsAdapter.JoinPath(ctx, string(tmpDir), string(relPath)), nil
}

func (to *orchestrator) writeMutatedFile(ctx context.Context, path m.Path, content []byte) error {
	if err := to.fsAdapter.WriteFile(ctx, path, content, 0o600); err != nil {
		slog.Error("Failed to write mutated file", "path", path, "error", err)
		return fmt.Errorf("failed to write mutated file: %w", err)
	}

	return nil
}

// cleanupTempDir removes the temporary directory, logging errors if cleanup fails.
func (to *orchestrator) cleanupTempDir(ctx context.Context, tmpDir m.Path) {
	if err := to.fsAdapter.RemoveAll(ctx, tmpDir); err != nil {
		slog.Error("Failed to cleanup temp dir", "tmpDir", tmpDir, "error", err)
	}
}
