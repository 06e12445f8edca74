package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/dirctx/internal/scan"
)

func tree(t *testing.T) *scan.Target {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0755))
	return &scan.Target{
		Path: root,
		ID:   ".",
		Children: []*scan.Target{
			{Path: filepath.Join(root, "src"), ID: "src"},
		},
	}
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func start(t *testing.T, w *Watcher, root *scan.Target, fn HandlerFunc) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, root, fn) }()
	// fsnotify registers watches synchronously inside Run; give it a moment.
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestBatchesChangedDirectories(t *testing.T) {
	root := tree(t)
	batches := make(chan []string, 4)
	w := &Watcher{
		Debounce: 50 * time.Millisecond,
		Ignored:  func(name string) bool { return name == ".context.yaml" },
		Log:      quiet(),
	}

	cancel, done := start(t, w, root, func(_ context.Context, changed []string) (*scan.Target, error) {
		batches <- changed
		return nil, nil
	})
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(root.Path, ".context.yaml"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root.Path, "src", "a.go"), []byte("package src"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root.Path, "src", "b.go"), []byte("package src"), 0644))

	select {
	case got := <-batches:
		assert.Equal(t, []string{"src"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch received")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestHandlerErrorStopsRun(t *testing.T) {
	root := tree(t)
	w := &Watcher{Debounce: 20 * time.Millisecond, Log: quiet()}
	boom := errors.New("boom")

	cancel, done := start(t, w, root, func(context.Context, []string) (*scan.Target, error) {
		return nil, boom
	})
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(root.Path, "main.go"), []byte("package main"), 0644))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRescanAddsNewDirectories(t *testing.T) {
	root := tree(t)
	newDir := filepath.Join(root.Path, "src", "sub")
	batches := make(chan []string, 4)
	w := &Watcher{Debounce: 30 * time.Millisecond, Log: quiet()}

	cancel, done := start(t, w, root, func(_ context.Context, changed []string) (*scan.Target, error) {
		batches <- changed
		next := *root
		src := *root.Children[0]
		src.Children = []*scan.Target{{Path: newDir, ID: "src/sub"}}
		next.Children = []*scan.Target{&src}
		return &next, nil
	})
	defer cancel()

	require.NoError(t, os.Mkdir(newDir, 0755))
	select {
	case got := <-batches:
		assert.Equal(t, []string{"src"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for mkdir")
	}
	// The new tree is synced after the handler returns.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(newDir, "x.go"), []byte("package sub"), 0644))
	select {
	case got := <-batches:
		assert.Equal(t, []string{"src/sub"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("new directory not watched")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestRunMissingDirectory(t *testing.T) {
	w := &Watcher{Log: quiet()}
	err := w.Run(context.Background(), &scan.Target{Path: filepath.Join(t.TempDir(), "gone"), ID: "."}, nil)
	assert.ErrorContains(t, err, "watching .")
}

func TestIgnoredInternalFiles(t *testing.T) {
	w := &Watcher{}
	assert.True(t, w.ignored(".dirctx-123.tmp"))
	assert.True(t, w.ignored(".dirctx.lock"))
	assert.False(t, w.ignored("main.go"))
}
