package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdictLike struct {
	ID      string
	Killers []int
	Err     string
}

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill uses the given directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "spill")

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Remove()

		assert.Equal(t, dir, filepath.Dir(spill.Path()))
	})

	t.Run("NewFileSpill defaults to the temp directory", func(t *testing.T) {
		spill, err := NewFileSpill[int]("")
		require.NoError(t, err)
		defer spill.Remove()

		assert.Equal(t, filepath.Clean(os.TempDir()), filepath.Dir(spill.Path()))
	})

	t.Run("Append and Get", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))

		first, err := spill.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "first", first)

		second, err := spill.Get(1)
		require.NoError(t, err)
		assert.Equal(t, "second", second)

		_, err = spill.Get(3)
		require.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("AppendBatch and Len", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		assert.Equal(t, uint64(0), spill.Len())
		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))
		assert.Equal(t, uint64(3), spill.Len())
	})

	t.Run("Range keeps append order", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.AppendBatch([]int{10, 20, 30}))

		var indices []uint64

		var items []int

		err = spill.Range(func(index uint64, item int) error {
			indices = append(indices, index)
			items = append(items, item)

			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1, 2}, indices)
		assert.Equal(t, []int{10, 20, 30}, items)
	})

	t.Run("Range stops on callback error", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))

		boom := errors.New("boom")
		calls := 0

		err = spill.Range(func(uint64, int) error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("structs with nil slices round trip", func(t *testing.T) {
		spill, err := NewFileSpill[verdictLike](t.TempDir())
		require.NoError(t, err)
		defer spill.Remove()

		items := []verdictLike{
			{ID: "a", Killers: []int{0, 2}},
			{ID: "b"},
			{ID: "c", Err: "jasmine: not found"},
		}
		require.NoError(t, spill.AppendBatch(items))

		collected, err := spill.Collect()
		require.NoError(t, err)
		assert.Equal(t, items, collected)
	})
}

func TestFileSpill_CloseAndRemove(t *testing.T) {
	spill, err := NewFileSpill[int](t.TempDir())
	require.NoError(t, err)

	require.NoError(t, spill.Append(7))
	require.NoError(t, spill.Close())
	require.NoError(t, spill.Close())

	require.ErrorIs(t, spill.Append(8), ErrClosed)

	item, err := spill.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 7, item)

	require.NoError(t, spill.Remove())

	_, err = os.Stat(spill.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, spill.Remove())
}

func TestFileSpill_Empty(t *testing.T) {
	spill, err := NewFileSpill[int](t.TempDir())
	require.NoError(t, err)
	defer spill.Remove()

	collected, err := spill.Collect()
	require.NoError(t, err)
	assert.Empty(t, collected)

	_, err = spill.Get(0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func BenchmarkAppend(b *testing.B) {
	spill, err := NewFileSpill[verdictLike](b.TempDir())
	require.NoError(b, err)
	defer spill.Remove()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Append(verdictLike{ID: "m", Killers: []int{i}})
	}
}

func FuzzAppendGet(f *testing.F) {
	f.Add("")
	f.Add("calc adds")

	f.Fuzz(func(t *testing.T, data string) {
		spill, err := NewFileSpill[string](t.TempDir())
		if err != nil {
			t.Skipf("setup failed: %v", err)
		}
		defer spill.Remove()

		if err := spill.Append(data); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		got, err := spill.Get(0)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}

		if got != data {
			t.Fatalf("value mismatch: expected %q, got %q", data, got)
		}
	})
}
