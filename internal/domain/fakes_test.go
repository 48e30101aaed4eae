package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gooze.dev/pkg/unitmut/internal/adapter"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// fakeExecutor records every request and answers from outcome.
type fakeExecutor struct {
	mu       sync.Mutex
	requests []adapter.ExecutionRequest
	outcome  func(ctx context.Context, req adapter.ExecutionRequest) (adapter.ExecutionOutcome, error)
	events   *[]string
}

func (f *fakeExecutor) Execute(ctx context.Context, req adapter.ExecutionRequest) (adapter.ExecutionOutcome, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)

	if f.events != nil {
		*f.events = append(*f.events, "execute:"+req.TestFiles[0].Name)
	}
	f.mu.Unlock()

	if f.outcome == nil {
		return adapter.ExecutionOutcome{Total: 1}, nil
	}

	return f.outcome(ctx, req)
}

func (f *fakeExecutor) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		names = append(names, req.TestFiles[0].Name)
	}

	return names
}

// memoryArtifactStore keeps artifacts in memory instead of writing files.
type memoryArtifactStore struct {
	mu         sync.Mutex
	saved      map[m.Path][]byte
	released   []m.Path
	events     *[]string
	saveErr    error
	releaseErr error
}

func newMemoryArtifactStore(events *[]string) *memoryArtifactStore {
	return &memoryArtifactStore{saved: map[m.Path][]byte{}, events: events}
}

func (s *memoryArtifactStore) Save(_ context.Context, unit m.TestUnit) (m.Path, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := unit.File
	if unit.Standalone() {
		path = m.Path(fmt.Sprintf("%s#%d", unit.File, unit.Index))
		s.saved[path] = unit.Artifact
	}

	if s.events != nil {
		*s.events = append(*s.events, "save:"+unit.Name)
	}

	return path, nil
}

func (s *memoryArtifactStore) Release(_ context.Context, path m.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = append(s.released, path)

	if s.events != nil {
		*s.events = append(*s.events, "release:"+string(path))
	}

	return s.releaseErr
}

func writeFixture(t *testing.T, dir, name, content string) m.Path {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return m.Path(path)
}

func jasmineConfig(individual bool) m.RunnerConfig {
	return m.RunnerConfig{
		IndividualTests: individual,
		Framework:       m.FrameworkJasmine,
		Command:         []string{"jasmine"},
	}
}

func newJasmineRunner(t *testing.T, cfg m.RunnerConfig, executor *fakeExecutor, store adapter.ArtifactStore) TestRunner {
	t.Helper()

	runner, err := NewTestRunner(cfg, executor, store, adapter.NewLocalSourceFSAdapter(), adapter.NewJasmineSuiteParser())
	require.NoError(t, err)

	return runner
}
