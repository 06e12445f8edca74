package scan

import (
	"path/filepath"
	"strings"
)

// defaultExtensions lists file extensions treated as source-like.
var defaultExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".rs", ".java", ".kt", ".kts", ".scala", ".rb", ".php",
	".cs", ".fs", ".c", ".h", ".cc", ".cpp", ".hpp", ".m", ".swift",
	".sh", ".bash", ".sql", ".proto", ".graphql", ".vue", ".svelte",
	".lua", ".ex", ".exs", ".erl", ".hs", ".clj", ".dart", ".zig",
}

// defaultFilenames lists exact file names treated as source-like:
// build and dependency manifests.
var defaultFilenames = []string{
	"go.mod", "package.json", "tsconfig.json", "Cargo.toml", "pyproject.toml",
	"setup.py", "requirements.txt", "Pipfile", "Gemfile", "composer.json",
	"pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle",
	"Makefile", "CMakeLists.txt", "Dockerfile", "BUILD", "BUILD.bazel",
	"WORKSPACE", "deno.json",
}

// deniedDirs are never descended into.
var deniedDirs = map[string]bool{
	".git":             true,
	".hg":              true,
	".svn":             true,
	"node_modules":     true,
	"vendor":           true,
	"bower_components": true,
	"dist":             true,
	"build":            true,
	"out":              true,
	"target":           true,
	"bin":              true,
	"obj":              true,
	"__pycache__":      true,
	".venv":            true,
	"venv":             true,
	".tox":             true,
	"coverage":         true,
	".next":            true,
	".nuxt":            true,
	".cache":           true,
	".gradle":          true,
	".idea":            true,
	".vscode":          true,
}

// IsDeniedDir reports whether a directory name is in the fixed deny-list.
func IsDeniedDir(name string) bool {
	return deniedDirs[name]
}

// Classifier decides which files are source-like.
type Classifier struct {
	extensions map[string]bool
	names      map[string]bool
	excluded   map[string]bool
}

// NewClassifier returns a Classifier with the built-in allow-lists plus the
// given extra extensions and names. Excluded names are never source-like,
// even when they match an allow-list; the artifact and config files go here.
func NewClassifier(extraExtensions, extraNames, excluded []string) *Classifier {
	c := &Classifier{
		extensions: make(map[string]bool, len(defaultExtensions)+len(extraExtensions)),
		names:      make(map[string]bool, len(defaultFilenames)+len(extraNames)),
		excluded:   make(map[string]bool, len(excluded)),
	}
	for _, ext := range defaultExtensions {
		c.extensions[ext] = true
	}
	for _, ext := range extraExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extensions[ext] = true
	}
	for _, n := range defaultFilenames {
		c.names[n] = true
	}
	for _, n := range extraNames {
		c.names[n] = true
	}
	for _, n := range excluded {
		if n != "" {
			c.excluded[n] = true
		}
	}
	return c
}

// IsSource reports whether a file name is source-like.
func (c *Classifier) IsSource(name string) bool {
	if c.excluded[name] {
		return false
	}
	if c.names[name] {
		return true
	}
	return c.extensions[strings.ToLower(filepath.Ext(name))]
}
