package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// ArtifactStore materializes test units as runnable files.
type ArtifactStore interface {
	// Save returns the path that runs only the given unit. Units without a
	// standalone artifact resolve to their original file.
	Save(ctx context.Context, unit m.TestUnit) (m.Path, error)

	// Release removes an artifact returned by Save. Paths the store did not
	// create are left untouched.
	Release(ctx context.Context, path m.Path) error
}

// LocalArtifactStore writes artifacts next to the original test file so that
// relative imports inside the suite keep resolving.
type LocalArtifactStore struct {
	mu      sync.Mutex
	created map[m.Path]struct{}
}

// NewLocalArtifactStore constructs a LocalArtifactStore.
func NewLocalArtifactStore() *LocalArtifactStore {
	return &LocalArtifactStore{created: make(map[m.Path]struct{})}
}

// Save implements ArtifactStore.
func (s *LocalArtifactStore) Save(ctx context.Context, unit m.TestUnit) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !unit.Standalone() {
		return unit.File, nil
	}

	dir := filepath.Dir(string(unit.File))
	ext := filepath.Ext(string(unit.File))
	stem := strings.TrimSuffix(filepath.Base(string(unit.File)), ext)

	file, err := os.CreateTemp(dir, fmt.Sprintf("%s.unit%d-*%s", stem, unit.Index, ext))
	if err != nil {
		return "", fmt.Errorf("create artifact for %q: %w", unit.Name, err)
	}

	path := m.Path(file.Name())

	if _, err := file.Write(unit.Artifact); err != nil {
		_ = file.Close()
		_ = os.Remove(string(path))

		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(string(path))
		return "", fmt.Errorf("close artifact %s: %w", path, err)
	}

	s.mu.Lock()
	s.created[path] = struct{}{}
	s.mu.Unlock()

	return path, nil
}

// Release implements ArtifactStore. It runs even when ctx is done.
func (s *LocalArtifactStore) Release(_ context.Context, path m.Path) error {
	s.mu.Lock()
	_, ok := s.created[path]
	delete(s.created, path)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := os.Remove(string(path)); err != nil && !os.IsNotExist(err) {
		slog.Error("Failed to remove test artifact", "path", path, "error", err)
		return fmt.Errorf("remove artifact %s: %w", path, err)
	}

	return nil
}
