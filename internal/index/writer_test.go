package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/config"
	"github.com/bianoble/dirctx/internal/sandbox"
	"github.com/bianoble/dirctx/internal/scan"
)

func sampleTree(root string) *scan.Target {
	return &scan.Target{
		Path:  root,
		ID:    ".",
		Files: []string{"main.go"},
		Children: []*scan.Target{
			{
				Path:  filepath.Join(root, "src"),
				ID:    "src",
				Files: []string{"a.go", "b.go"},
				Children: []*scan.Target{
					{Path: filepath.Join(root, "src", "util"), ID: "src/util", Files: []string{"u.go"}},
				},
			},
		},
	}
}

func sampleArtifacts() map[string]*artifact.Artifact {
	return map[string]*artifact.Artifact{
		".":        {Version: 1, Content: artifact.Content{Summary: "Root package."}},
		"src":      {Version: 1, Content: artifact.Content{Summary: "Sources."}},
		"src/util": nil,
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	root := t.TempDir()
	w := &Writer{Root: root, ArtifactFile: ".context.yaml", Template: DefaultTemplate}

	out, err := Render(DefaultTemplate, w.data(sampleTree(root), sampleArtifacts()))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "has a .context.yaml\n")
	assert.Contains(t, text, "\n- `.`: Root package.\n  - `src`: Sources.\n    - `src/util` (no context yet)\n")
	assert.NotContains(t, text, "<no value>")
}

func TestRenderUnknownField(t *testing.T) {
	_, err := Render("{{ .Nope }}", Data{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing template")

	_, err = Render("{{ .Project ", Data{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing template")
}

func TestWriteIndexAllTools(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, ".context.yaml", []string{"generic", "copilot"}, NewToolMap(nil), "")
	require.NoError(t, err)

	require.NoError(t, w.WriteIndex(context.Background(), sampleTree(root), sampleArtifacts()))

	generic, err := os.ReadFile(filepath.Join(root, "CONTEXT_INDEX.md"))
	require.NoError(t, err)
	copilot, err := os.ReadFile(filepath.Join(root, ".github", "copilot-instructions.md"))
	require.NoError(t, err)
	assert.Equal(t, string(generic), string(copilot))
	assert.Contains(t, string(generic), "`src`: Sources.")
}

func TestWriteIndexCustomTemplate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.tmpl"),
		[]byte("{{ .Project }}:{{ range .Entries }} {{ .ID }}={{ .Files }}{{ end }}\n"), 0644))

	w, err := New(root, ".context.yaml", []string{"codex"}, NewToolMap(nil), "index.tmpl")
	require.NoError(t, err)
	require.NoError(t, w.WriteIndex(context.Background(), sampleTree(root), sampleArtifacts()))

	got, err := os.ReadFile(filepath.Join(root, "AGENTS.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root)+": .=1 src=2 src/util=1\n", string(got))
}

func TestNewErrors(t *testing.T) {
	root := t.TempDir()

	_, err := New(root, ".context.yaml", []string{"cursor"}, NewToolMap(nil), "")
	assert.ErrorContains(t, err, "unknown tool")

	_, err = New(root, ".context.yaml", []string{"generic"}, NewToolMap(nil), "missing.tmpl")
	assert.ErrorContains(t, err, "reading index template")

	_, err = New(root, ".context.yaml", []string{"generic"}, NewToolMap(nil), "../outside.tmpl")
	assert.True(t, errors.Is(err, sandbox.ErrEscape))
}

func TestWriteIndexPartialFailure(t *testing.T) {
	root := t.TempDir()
	// A directory where the codex file should go makes that write fail.
	require.NoError(t, os.Mkdir(filepath.Join(root, "AGENTS.md"), 0755))

	tm := NewToolMap([]config.ToolDefinition{{Name: "escape", File: "../ESCAPE.md"}})
	w, err := New(root, ".context.yaml", []string{"codex", "escape", "generic"}, tm, "")
	require.NoError(t, err)

	err = w.WriteIndex(context.Background(), sampleTree(root), sampleArtifacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENTS.md")
	assert.True(t, errors.Is(err, sandbox.ErrEscape))

	_, statErr := os.Stat(filepath.Join(root, "CONTEXT_INDEX.md"))
	assert.NoError(t, statErr, "remaining tools still written")
	_, statErr = os.Stat(filepath.Join(filepath.Dir(root), "ESCAPE.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteIndexCancelled(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, ".context.yaml", nil, NewToolMap(nil), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.WriteIndex(ctx, sampleTree(root), nil), context.Canceled)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, depth("."))
	assert.Equal(t, 1, depth("src"))
	assert.Equal(t, 3, depth("a/b/c"))
}
