package prompts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcherReportsTemplateEdits(t *testing.T) {
	dir := t.TempDir()
	station := filepath.Join(dir, "station.md")
	require.NoError(t, os.WriteFile(station, []byte("v1"), 0o644))

	w, err := NewWatcher([]string{station}, zaptest.NewLogger(t))
	require.NoError(t, err)

	edited := make(chan string, 8)
	w.OnEdit(func(path string) { edited <- path })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(station, []byte("v2"), 0o644))

	want, err := filepath.Abs(station)
	require.NoError(t, err)

	select {
	case got := <-edited:
		require.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no edit reported")
	}
}
