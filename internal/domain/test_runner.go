package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// TestRunner runs test files against a source set, either as whole files or
// decomposed into individually executed test units.
type TestRunner interface {
	// Test runs the given test files as one invocation. Failing tests and
	// timeouts are reported in the result. A harness that cannot run at all
	// yields an error wrapping model.ErrExecution.
	Test(ctx context.Context, cfg m.RunnerConfig, sourceFiles []m.Path, testFiles []m.TestFile) (m.TestResult, error)

	// TestAndCollectCoverage returns one result per test unit (or per test
	// file when individual tests are disabled), in document order across
	// the test files.
	TestAndCollectCoverage(ctx context.Context, sourceFiles, testFiles []m.Path) ([]m.TestResult, error)

	// Config returns the configuration the runner was built with.
	Config() m.RunnerConfig
}

type testRunner struct {
	cfg       m.RunnerConfig
	executor  adapter.TestExecutor
	artifacts adapter.ArtifactStore
	fs        adapter.SourceFSAdapter
	parser    adapter.SuiteParser
}

// NewTestRunner validates cfg and constructs a TestRunner.
func NewTestRunner(
	cfg m.RunnerConfig,
	executor adapter.TestExecutor,
	artifacts adapter.ArtifactStore,
	fs adapter.SourceFSAdapter,
	parser adapter.SuiteParser,
) (TestRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if executor == nil || artifacts == nil || fs == nil || parser == nil {
		return nil, fmt.Errorf("%w: test runner requires an executor, artifact store, file system and suite parser", m.ErrInvalidArgument)
	}

	return &testRunner{
		cfg:       cfg,
		executor:  executor,
		artifacts: artifacts,
		fs:        fs,
		parser:    parser,
	}, nil
}

func (r *testRunner) Config() m.RunnerConfig {
	return r.cfg
}

func (r *testRunner) Test(ctx context.Context, cfg m.RunnerConfig, sourceFiles []m.Path, testFiles []m.TestFile) (m.TestResult, error) {
	if err := validatePaths("source", sourceFiles); err != nil {
		return m.TestResult{}, err
	}

	if len(testFiles) == 0 {
		return m.TestResult{}, fmt.Errorf("%w: no test files", m.ErrInvalidArgument)
	}

	for _, file := range testFiles {
		if file.Path == "" {
			return m.TestResult{}, fmt.Errorf("%w: empty test file path", m.ErrInvalidArgument)
		}
	}

	runCtx := ctx

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	outcome, err := r.executor.Execute(runCtx, adapter.ExecutionRequest{
		Config:      cfg,
		SourceFiles: sourceFiles,
		TestFiles:   testFiles,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return m.TestResult{}, ctxErr
		}

		slog.Error("Test execution failed", "tests", testFiles, "error", err)

		return m.TestResult{}, fmt.Errorf("%w: %w", m.ErrExecution, err)
	}

	result := m.NewTestResult(
		sourceFiles,
		testFiles,
		outcome.Failures,
		outcome.Total-outcome.Failures,
		outcome.TimedOut,
		outcome.Duration,
	)
	result.Output = outcome.Output

	return result, nil
}

func (r *testRunner) TestAndCollectCoverage(ctx context.Context, sourceFiles, testFiles []m.Path) ([]m.TestResult, error) {
	if err := validatePaths("source", sourceFiles); err != nil {
		return nil, err
	}

	if err := validatePaths("test", testFiles); err != nil {
		return nil, err
	}

	results := make([]m.TestResult, 0, len(testFiles))

	for _, testFile := range testFiles {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !r.cfg.IndividualTests {
			result, err := r.Test(ctx, r.cfg, sourceFiles, []m.TestFile{{
				Path:   testFile,
				Name:   filepath.Base(string(testFile)),
				Origin: testFile,
			}})
			if err != nil {
				return results, err
			}

			results = append(results, result)

			continue
		}

		units, err := r.decompose(ctx, testFile)
		if err != nil {
			return results, err
		}

		for _, unit := range units {
			result, err := r.testUnit(ctx, sourceFiles, unit)
			if err != nil {
				return results, err
			}

			results = append(results, result)
		}
	}

	return results, nil
}

func (r *testRunner) decompose(ctx context.Context, testFile m.Path) ([]m.TestUnit, error) {
	content, err := r.fs.ReadFile(ctx, testFile)
	if err != nil {
		slog.Error("Failed to read test file", "path", testFile, "error", err)
		return nil, fmt.Errorf("read test file %s: %w", testFile, err)
	}

	tree, err := r.parser.Parse(ctx, testFile, content)
	if err != nil {
		slog.Error("Failed to parse test file", "path", testFile, "error", err)
		return nil, fmt.Errorf("parse test file %s: %w", testFile, err)
	}

	units := Decompose(tree)

	slog.Debug("Decomposed test file", "path", testFile, "units", len(units))

	return units, nil
}

// testUnit materializes one unit, runs it and releases its artifact as soon
// as the result is captured. A failed release is logged and does not affect
// the result.
func (r *testRunner) testUnit(ctx context.Context, sourceFiles []m.Path, unit m.TestUnit) (m.TestResult, error) {
	path, err := r.artifacts.Save(ctx, unit)
	if err != nil {
		slog.Error("Failed to materialize test unit", "unit", unit.Name, "file", unit.File, "error", err)
		return m.TestResult{}, fmt.Errorf("materialize %q: %w", unit.Name, err)
	}

	result, err := r.Test(ctx, r.cfg, sourceFiles, []m.TestFile{{
		Path:     path,
		Name:     unit.Name,
		Origin:   unit.File,
		Selector: unit.Selector,
	}})

	if releaseErr := r.artifacts.Release(ctx, path); releaseErr != nil {
		slog.Error("Failed to release test unit", "unit", unit.Name, "path", path, "error", releaseErr)
	}

	return result, err
}

func validatePaths(kind string, paths []m.Path) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: no %s files", m.ErrInvalidArgument, kind)
	}

	for _, path := range paths {
		if path == "" {
			return fmt.Errorf("%w: empty %s file path", m.ErrInvalidArgument, kind)
		}
	}

	return nil
}
