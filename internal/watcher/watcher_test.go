package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsChange(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.log")
	right := filepath.Join(dir, "right.log")
	other := filepath.Join(dir, "other.log")
	for _, p := range []string{left, right, other} {
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}

	w, err := New([]string{left, right}, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("x\n"), 0o600))
	select {
	case p := <-w.Changes():
		t.Fatalf("unexpected change for %s", p)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(right, []byte("2024-01-01 10:00:00.000 hi\n"), 0o600))
	select {
	case p := <-w.Changes():
		require.Equal(t, right, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range w.Changes() {
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "nope", "a.log")}, time.Millisecond)
	require.Error(t, err)
}
