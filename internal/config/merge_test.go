package config

import (
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestMergeScalarsOverlayWins(t *testing.T) {
	base := &Config{Version: 1, MaxDepth: intPtr(4), Concurrency: 2, ArtifactFile: ".ctx.yaml"}
	overlay := &Config{Version: 1, Concurrency: 16}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Depth() != 4 {
		t.Errorf("max_depth = %d, want 4 (base kept)", merged.Depth())
	}
	if merged.Concurrency != 16 {
		t.Errorf("concurrency = %d, want 16 (overlay wins)", merged.Concurrency)
	}
	if merged.ArtifactFile != ".ctx.yaml" {
		t.Errorf("artifact_file = %q", merged.ArtifactFile)
	}
}

func TestMergeIgnorePatternsConcatenate(t *testing.T) {
	base := &Config{Version: 1, Ignore: []string{"gen/", "*.tmp"}}
	overlay := &Config{Version: 1, Ignore: []string{"*.tmp", "!gen/keep"}}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"gen/", "*.tmp", "!gen/keep"}
	if strings.Join(merged.Ignore, ",") != strings.Join(want, ",") {
		t.Errorf("ignore = %v, want %v", merged.Ignore, want)
	}
}

func TestMergeIgnoreFilesReplaced(t *testing.T) {
	base := &Config{Version: 1, IgnoreFiles: []string{".gitignore"}}
	overlay := &Config{Version: 1, IgnoreFiles: []string{".contextignore"}}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.IgnoreFiles) != 1 || merged.IgnoreFiles[0] != ".contextignore" {
		t.Errorf("ignore_files = %v", merged.IgnoreFiles)
	}

	merged, err = Merge(base, &Config{Version: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.IgnoreFiles) != 1 || merged.IgnoreFiles[0] != ".gitignore" {
		t.Errorf("unset overlay should keep base: %v", merged.IgnoreFiles)
	}
}

func TestMergeIndex(t *testing.T) {
	base := &Config{
		Version: 1,
		Index: IndexConfig{
			Tools: []string{"generic"},
			ToolDefinitions: []ToolDefinition{
				{Name: "shared", File: "BASE.md"},
				{Name: "base-only", File: "B.md"},
			},
		},
	}
	overlay := &Config{
		Version: 1,
		Index: IndexConfig{
			Enabled: boolPtr(false),
			Tools:   []string{"codex"},
			ToolDefinitions: []ToolDefinition{
				{Name: "shared", File: "OVERLAY.md"},
			},
		},
	}

	merged, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Index.IsEnabled() {
		t.Error("overlay disabled the index")
	}
	if len(merged.Index.Tools) != 1 || merged.Index.Tools[0] != "codex" {
		t.Errorf("tools = %v", merged.Index.Tools)
	}
	if len(merged.Index.ToolDefinitions) != 2 {
		t.Fatalf("tool_definitions = %+v", merged.Index.ToolDefinitions)
	}
	for _, td := range merged.Index.ToolDefinitions {
		if td.Name == "shared" && td.File != "OVERLAY.md" {
			t.Errorf("shared = %q, want overlay", td.File)
		}
	}
}

func TestMergeEnabledFlagsKeepBaseWhenUnset(t *testing.T) {
	base := &Config{Version: 1, History: HistoryConfig{Enabled: boolPtr(false)}}
	merged, err := Merge(base, &Config{Version: 1})
	if err != nil {
		t.Fatal(err)
	}
	if merged.History.IsEnabled() {
		t.Error("base history.enabled=false lost")
	}
}

func TestMergeExplicitZeroDepthWins(t *testing.T) {
	merged, err := Merge(&Config{Version: 1, MaxDepth: intPtr(6)}, &Config{Version: 1, MaxDepth: intPtr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if merged.Depth() != 0 {
		t.Errorf("max_depth = %d, want 0 from overlay", merged.Depth())
	}
}

func TestMergeVersionMismatch(t *testing.T) {
	_, err := Merge(&Config{Version: 1}, &Config{Version: 2})
	if err == nil {
		t.Fatal("expected version mismatch error")
	}
	if !strings.Contains(err.Error(), "version mismatch") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMergeVersionInherited(t *testing.T) {
	merged, err := Merge(&Config{Version: 1}, &Config{MaxDepth: intPtr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if merged.Version != 1 {
		t.Errorf("version = %d, want 1", merged.Version)
	}
}

func TestMergeNil(t *testing.T) {
	cfg := &Config{Version: 1}
	if got, _ := Merge(nil, cfg); got != cfg {
		t.Error("Merge(nil, cfg) should return cfg")
	}
	if got, _ := Merge(cfg, nil); got != cfg {
		t.Error("Merge(cfg, nil) should return cfg")
	}
}

func TestMergeAll(t *testing.T) {
	if _, err := MergeAll(nil); err == nil {
		t.Error("expected error for empty list")
	}

	merged, err := MergeAll([]*Config{
		{Version: 1, MaxDepth: intPtr(2)},
		{Version: 1, Concurrency: 3},
		{Version: 1, MaxDepth: intPtr(5)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if merged.Depth() != 5 || merged.Concurrency != 3 {
		t.Errorf("merged = %+v", merged)
	}
}
