package builder

import (
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".go":      "go",
	".ts":      "typescript",
	".tsx":     "typescript",
	".js":      "javascript",
	".jsx":     "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".py":      "python",
	".rs":      "rust",
	".java":    "java",
	".kt":      "kotlin",
	".kts":     "kotlin",
	".scala":   "scala",
	".rb":      "ruby",
	".php":     "php",
	".cs":      "csharp",
	".fs":      "fsharp",
	".c":       "c",
	".h":       "c",
	".cc":      "cpp",
	".cpp":     "cpp",
	".hpp":     "cpp",
	".m":       "objc",
	".swift":   "swift",
	".sh":      "shell",
	".bash":    "shell",
	".sql":     "sql",
	".proto":   "protobuf",
	".graphql": "graphql",
	".vue":     "vue",
	".svelte":  "svelte",
	".lua":     "lua",
	".ex":      "elixir",
	".exs":     "elixir",
	".erl":     "erlang",
	".hs":      "haskell",
	".clj":     "clojure",
	".dart":    "dart",
	".zig":     "zig",
}

// Language returns the language label for a file name. Build and dependency
// manifests are labelled "manifest"; unknown extensions yield "".
func Language(name string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return lang
	}
	switch name {
	case "go.mod", "package.json", "tsconfig.json", "Cargo.toml", "pyproject.toml",
		"setup.py", "requirements.txt", "Pipfile", "Gemfile", "composer.json",
		"pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle",
		"Makefile", "CMakeLists.txt", "Dockerfile", "BUILD", "BUILD.bazel",
		"WORKSPACE", "deno.json":
		return "manifest"
	}
	return ""
}
