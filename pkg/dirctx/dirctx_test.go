package dirctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/config"
	"github.com/bianoble/dirctx/internal/lock"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// setupProject creates a small Go project and a config that keeps the cache
// and history inside the test's temp dir.
func setupProject(t *testing.T, extraConfig string) string {
	t.Helper()
	dir := t.TempDir()
	state := t.TempDir()

	writeFile(t, dir, "go.mod", "module example.com/app\n")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "pkg/store/store.go", "package store\n\n// Store keeps things.\ntype Store struct{}\n\nfunc Open(path string) (*Store, error) { return nil, nil }\n")
	writeFile(t, dir, "pkg/store/testdata/.keep", "")
	writeFile(t, dir, "web/app.ts", "export function render(el: Element): void {}\n")
	writeFile(t, dir, "node_modules/x/index.js", "module.exports = 1\n")

	cfg := fmt.Sprintf("version: 1\nhistory:\n  path: %s\ncache:\n  dir: %s\n%s",
		filepath.Join(state, "history.db"), filepath.Join(state, "cache"), extraConfig)
	writeFile(t, dir, "dirctx.yaml", cfg)
	return dir
}

func newTestClient(t *testing.T, dir string) *Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	client, err := New(Options{ProjectRoot: dir, NoInherit: true, Log: log})
	require.NoError(t, err)
	return client
}

func TestNewDiscoversProjectConfig(t *testing.T) {
	dir := setupProject(t, "concurrency: 3\n")
	client := newTestClient(t, dir)

	assert.Equal(t, 3, client.Config().Concurrency)
	assert.Equal(t, config.DefaultArtifactFile, client.Config().ArtifactFile)
	require.Len(t, client.Layers(), 1)
	assert.True(t, client.Layers()[0].Loaded)
	assert.True(t, filepath.IsAbs(client.Root()))
}

func TestNewDefaultsToSequentialWaves(t *testing.T) {
	client := newTestClient(t, t.TempDir())

	assert.Equal(t, 1, client.Config().Concurrency)
	assert.Empty(t, client.Layers())
}

func TestNewRejectsInvalidOverride(t *testing.T) {
	dir := setupProject(t, "")
	t.Setenv("DIRCTX_CONCURRENCY", "-2")

	_, err := New(Options{ProjectRoot: dir, NoInherit: true})
	var verr *config.ValidationError
	assert.True(t, errors.As(err, &verr), "err = %v", err)
}

func TestScanBuildsTree(t *testing.T) {
	dir := setupProject(t, "")
	tree, err := newTestClient(t, dir).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{".", "pkg", "pkg/store", "web"}, tree.IDs())
	assert.Equal(t, []string{"go.mod", "main.go"}, tree.Files, "config file is not a source")
}

func TestRegenerateEndToEnd(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)
	ctx := context.Background()

	summary, err := client.Regenerate(ctx, RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	assert.Equal(t, []string{"pkg/store", "web", "pkg", "."}, summary.Updated)
	assert.Equal(t, 3, summary.Waves)

	a, err := artifact.NewStore(dir, config.DefaultArtifactFile).Read("pkg/store")
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Len(t, a.Files, 1)
	assert.Contains(t, a.Files[0].Signatures, "func Open(path string) (*Store, error)")

	root, err := artifact.NewStore(dir, config.DefaultArtifactFile).Read(".")
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "pkg", root.Children[0].ID)

	index, err := os.ReadFile(filepath.Join(dir, "CONTEXT_INDEX.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "`pkg/store`")
	_, err = os.Stat(filepath.Join(dir, "CLAUDE.md"))
	assert.True(t, os.IsNotExist(err), "only the generic index is written by default")

	// Nothing changed: a stale run skips everything.
	summary, err = client.Regenerate(ctx, RegenerateOptions{})
	require.NoError(t, err)
	assert.Empty(t, summary.Updated)
	assert.Len(t, summary.Skipped, 4)

	runs, err := client.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "stale", runs[0].Mode)
	assert.Equal(t, 4, runs[1].Updated)
}

func TestRegenerateDryRunWritesNothing(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)

	summary, err := client.Regenerate(context.Background(), RegenerateOptions{Mode: ModeAll, DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, summary.Plan)
	assert.Equal(t, 4, summary.Plan.RebuildCount())

	_, err = os.Stat(filepath.Join(dir, config.DefaultArtifactFile))
	assert.True(t, os.IsNotExist(err))
	runs, err := client.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "dry runs are not recorded")
}

func TestRegenerateLocked(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)

	held, err := lock.Acquire(context.Background(), filepath.Join(dir, lock.FileName), 0)
	require.NoError(t, err)
	defer held.Release()

	_, err = client.Regenerate(context.Background(), RegenerateOptions{LockTimeout: -1})
	assert.ErrorIs(t, err, lock.ErrLocked)
}

func TestRegenerateIndexDisabledAndCustomTools(t *testing.T) {
	dir := setupProject(t, "index:\n  tools: [codex, team]\n  tool_definitions:\n    - name: team\n      file: docs/TEAM.md\n")
	client := newTestClient(t, dir)

	files, err := client.IndexFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"AGENTS.md", "docs/TEAM.md"}, files)

	summary, err := client.Regenerate(context.Background(), RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	_, err = os.Stat(filepath.Join(dir, "docs", "TEAM.md"))
	assert.NoError(t, err)

	dir = setupProject(t, "index:\n  enabled: false\n")
	client = newTestClient(t, dir)
	summary, err = client.Regenerate(context.Background(), RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	_, err = os.Stat(filepath.Join(dir, "CONTEXT_INDEX.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegenerateUnknownTool(t *testing.T) {
	dir := setupProject(t, "index:\n  tools: [cursor]\n")
	_, err := newTestClient(t, dir).Regenerate(context.Background(), RegenerateOptions{})
	assert.ErrorContains(t, err, "unknown tool 'cursor'")
}

func TestPlanAfterEdit(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)
	ctx := context.Background()

	_, err := client.Regenerate(ctx, RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)

	// Bump the mtime so the fingerprint changes even on coarse clocks.
	path := filepath.Join(dir, "web", "app.ts")
	writeFile(t, dir, "web/app.ts", "export function render(el: Element, x: number): void {}\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	plan, err := client.Plan(ctx, ".", ModeStale)
	require.NoError(t, err)
	var rebuild []string
	for _, e := range plan.Entries {
		if e.Rebuild {
			rebuild = append(rebuild, e.ID)
		}
	}
	assert.Equal(t, []string{"web"}, rebuild)
}

func TestClean(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)
	ctx := context.Background()

	_, err := client.Regenerate(ctx, RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)

	res, err := client.Clean(ctx, "pkg", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg/store"}, res.Removed)
	_, err = os.Stat(filepath.Join(dir, "pkg", config.DefaultArtifactFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, config.DefaultArtifactFile))
	assert.NoError(t, err, "root artifact outside scope kept")
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	dir := setupProject(t, "")
	client := newTestClient(t, dir)

	_, err := client.Regenerate(context.Background(), RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type batch struct {
		changed []string
		updated []string
	}
	batches := make(chan batch, 4)
	done := make(chan error, 1)
	go func() {
		done <- client.Watch(ctx, 50*time.Millisecond, func(changed []string, s *Summary) error {
			batches <- batch{changed: changed, updated: s.Updated}
			return nil
		})
	}()
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(dir, "web", "extra.ts")
	writeFile(t, dir, "web/extra.ts", "export const x = 1\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case b := <-batches:
		assert.Equal(t, []string{"web"}, b.changed)
		assert.Equal(t, []string{"web"}, b.updated)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not regenerate")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestHistoryDisabled(t *testing.T) {
	dir := setupProject(t, "")
	// history.enabled=false from the environment overrides the file.
	t.Setenv("DIRCTX_HISTORY_ENABLED", "false")
	client := newTestClient(t, dir)

	_, err := client.Regenerate(context.Background(), RegenerateOptions{Mode: ModeAll})
	require.NoError(t, err)

	runs, err := client.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.False(t, strings.Contains(client.historyPath(), dir))
}
