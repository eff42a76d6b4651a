package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/watcher"
)

func TestNewValidates(t *testing.T) {
	_, err := watcher.New("  ", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, watcher.ErrNoPath)

	_, err = watcher.New("x.csv", nil)
	assert.ErrorIs(t, err, watcher.ErrNoReload)

	w, err := watcher.New("x.csv", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))
}

func TestRunReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly_export.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\n"), 0o600))

	var calls atomic.Int32
	w, err := watcher.New(path, func(context.Context) error {
		calls.Add(1)
		return nil
	}, watcher.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watch time to register before touching the file.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("name\nada\n"), 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// A sibling file never triggers a reload.
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunMissingDirectory(t *testing.T) {
	w, err := watcher.New(filepath.Join(t.TempDir(), "gone", "data.csv"), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
