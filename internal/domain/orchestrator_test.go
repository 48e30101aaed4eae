package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

const calcSpec = `const calc = require('../calc');

describe('calc', () => {
  it('adds', () => {
    expect(calc.add(1, 2)).toBe(3);
  });

  it('subtracts', () => {
    expect(calc.sub(3, 2)).toBe(1);
  });

  describe('slow', () => {
    it('loops', () => {});
  });
});
`

type jsProject struct {
	root   string
	source m.Path
	spec   m.Path
}

func newJSProject(t *testing.T) jsProject {
	t.Helper()

	root := t.TempDir()
	writeFixture(t, root, "package.json", "{}\n")

	return jsProject{
		root:   root,
		source: writeFixture(t, root, "calc.js", "exports.add = (a, b) => a + b;\nexports.sub = (a, b) => a - b;\n"),
		spec:   writeFixture(t, root, "spec/calc.spec.js", calcSpec),
	}
}

func mutantOf(p jsProject, original, replacement string) m.Mutant {
	content, _ := os.ReadFile(string(p.source))
	code := strings.Replace(string(content), original, replacement, 1)

	return m.Mutant{
		ID:          "m1",
		Source:      p.source,
		Operator:    "arithmetic",
		Span:        m.Span{Line: 1, Column: 33},
		MutatedCode: []byte(code),
	}
}

// workspaceExecutor fails "calc adds" when the workspace source contains
// the given fragment and times out "calc slow loops" when asked to.
func workspaceExecutor(t *testing.T, killedBy string, timeoutLoops bool, workspaces *[]string) *fakeExecutor {
	t.Helper()

	return &fakeExecutor{outcome: func(_ context.Context, req adapter.ExecutionRequest) (adapter.ExecutionOutcome, error) {
		source := string(req.SourceFiles[0])
		*workspaces = append(*workspaces, filepath.Dir(source))

		content, err := os.ReadFile(source)
		if err != nil {
			return adapter.ExecutionOutcome{}, err
		}

		name := req.TestFiles[0].Name
		switch {
		case name == "calc adds" && strings.Contains(string(content), killedBy):
			return adapter.ExecutionOutcome{Total: 1, Failures: 1}, nil
		case name == "calc slow loops" && timeoutLoops:
			return adapter.ExecutionOutcome{TimedOut: true}, nil
		default:
			return adapter.ExecutionOutcome{Total: 1}, nil
		}
	}}
}

func TestOrchestrator_TestMutant_Killed(t *testing.T) {
	project := newJSProject(t)

	var workspaces []string

	executor := workspaceExecutor(t, "a - b;\nexports.sub", false, &workspaces)
	runner := newJasmineRunner(t, jasmineConfig(true), executor, newMemoryArtifactStore(nil))
	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner)

	mutant := mutantOf(project, "a + b", "a - b")

	verdict, results, err := orch.TestMutant(context.Background(), mutant, []m.Path{project.spec})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, m.Killed, verdict.Status)
	assert.Equal(t, "m1", verdict.MutantID)
	assert.Equal(t, 3, verdict.Results)
	assert.Equal(t, []m.KillingUnit{{Index: 0, Name: "calc adds", File: project.spec}}, verdict.KillingUnits)

	for _, result := range results {
		assert.Equal(t, []m.Path{project.source}, result.SourceFiles)
		assert.Equal(t, project.spec, result.TestFiles[0].Origin)
	}

	original, err := os.ReadFile(string(project.source))
	require.NoError(t, err)
	assert.Contains(t, string(original), "a + b", "the original source is never modified")

	require.NotEmpty(t, workspaces)
	assert.NotEqual(t, project.root, workspaces[0])

	_, err = os.Stat(workspaces[0])
	assert.True(t, os.IsNotExist(err), "workspace is removed after the run")
}

func TestOrchestrator_TestMutant_SurvivedAndTimeout(t *testing.T) {
	project := newJSProject(t)

	var workspaces []string

	runner := newJasmineRunner(t, jasmineConfig(true), workspaceExecutor(t, "never", false, &workspaces), newMemoryArtifactStore(nil))
	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner)

	verdict, _, err := orch.TestMutant(context.Background(), mutantOf(project, "a + b", "a * b"), []m.Path{project.spec})
	require.NoError(t, err)
	assert.Equal(t, m.Survived, verdict.Status)
	assert.Empty(t, verdict.KillingUnits)

	runner = newJasmineRunner(t, jasmineConfig(true), workspaceExecutor(t, "never", true, &workspaces), newMemoryArtifactStore(nil))
	orch = NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner)

	verdict, _, err = orch.TestMutant(context.Background(), mutantOf(project, "a + b", "a * b"), []m.Path{project.spec})
	require.NoError(t, err)
	assert.Equal(t, m.Timeout, verdict.Status)
	assert.Equal(t, []int{2}, verdict.TimedOut)
}

func TestOrchestrator_TestMutant_NoTests(t *testing.T) {
	project := newJSProject(t)
	executor := &fakeExecutor{}
	runner := newJasmineRunner(t, jasmineConfig(true), executor, newMemoryArtifactStore(nil))

	verdict, results, err := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner).
		TestMutant(context.Background(), mutantOf(project, "a + b", "a - b"), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, m.Skipped, verdict.Status)
	assert.Empty(t, executor.requests)
}

func TestOrchestrator_TestMutant_InvalidMutant(t *testing.T) {
	runner := newJasmineRunner(t, jasmineConfig(true), &fakeExecutor{}, newMemoryArtifactStore(nil))
	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner)

	verdict, _, err := orch.TestMutant(context.Background(), m.Mutant{ID: "m-1", MutatedCode: []byte("x")}, []m.Path{"a.spec.js"})
	require.ErrorIs(t, err, m.ErrInvalidArgument)
	assert.Equal(t, "m-1", verdict.MutantID)
	assert.Equal(t, m.Error, verdict.Status)
	assert.Contains(t, verdict.Err, "has no source")

	verdict, _, err = orch.TestMutant(context.Background(), m.Mutant{ID: "m-2", Source: "calc.js"}, []m.Path{"a.spec.js"})
	require.ErrorIs(t, err, m.ErrInvalidArgument)
	assert.Equal(t, "m-2", verdict.MutantID)
	assert.Equal(t, m.Path("calc.js"), verdict.Source)
	assert.Equal(t, m.Error, verdict.Status)
	assert.Contains(t, verdict.Err, "has no mutated code")
}

func TestOrchestrator_TestMutant_ExecutionError(t *testing.T) {
	project := newJSProject(t)
	executor := &fakeExecutor{outcome: func(context.Context, adapter.ExecutionRequest) (adapter.ExecutionOutcome, error) {
		return adapter.ExecutionOutcome{}, errors.New("jasmine: not found")
	}}
	runner := newJasmineRunner(t, jasmineConfig(true), executor, newMemoryArtifactStore(nil))

	verdict, _, err := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), runner).
		TestMutant(context.Background(), mutantOf(project, "a + b", "a - b"), []m.Path{project.spec})
	require.ErrorIs(t, err, m.ErrExecution)
	assert.Equal(t, m.Error, verdict.Status)
	assert.Contains(t, verdict.Err, "jasmine: not found")
}

func TestOrchestrator_Baseline(t *testing.T) {
	project := newJSProject(t)

	green := newJasmineRunner(t, jasmineConfig(true), &fakeExecutor{}, newMemoryArtifactStore(nil))
	result, err := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), green).
		Baseline(context.Background(), []m.Path{project.source}, []m.Path{project.spec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successes)

	red := newJasmineRunner(t, jasmineConfig(true), &fakeExecutor{outcome: func(context.Context, adapter.ExecutionRequest) (adapter.ExecutionOutcome, error) {
		return adapter.ExecutionOutcome{Total: 3, Failures: 1}, nil
	}}, newMemoryArtifactStore(nil))
	_, err = NewOrchestrator(adapter.NewLocalSourceFSAdapter(), red).
		Baseline(context.Background(), []m.Path{project.source}, []m.Path{project.spec})
	require.ErrorIs(t, err, m.ErrBaselineFailed)
}

func TestCorrelate(t *testing.T) {
	mutant := m.Mutant{ID: "x", Source: "calc.go", Operator: "logical", Span: m.Span{Line: 7, Column: 3}}

	tests := []struct {
		name    string
		results []m.TestResult
		status  m.TestStatus
		killers []int
	}{
		{name: "no results", status: m.Skipped},
		{name: "all pass", results: []m.TestResult{{Successes: 1}, {Successes: 1}}, status: m.Survived},
		{name: "one failure", results: []m.TestResult{{Successes: 1}, {Failures: 1}}, status: m.Killed, killers: []int{1}},
		{name: "failure beats timeout", results: []m.TestResult{{TimedOut: true}, {Failures: 2}}, status: m.Killed, killers: []int{1}},
		{name: "timeout only", results: []m.TestResult{{Successes: 1}, {TimedOut: true}}, status: m.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Correlate(mutant, tt.results)
			assert.Equal(t, tt.status, verdict.Status)
			assert.Equal(t, len(tt.results), verdict.Results)
			assert.Equal(t, 7, verdict.Line)
			assert.Equal(t, 3, verdict.Column)

			var killers []int
			for _, unit := range verdict.KillingUnits {
				killers = append(killers, unit.Index)
			}

			assert.Equal(t, tt.killers, killers)
		})
	}
}
