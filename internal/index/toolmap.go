package index

import (
	"fmt"
	"sort"

	"github.com/bianoble/dirctx/internal/config"
)

// builtinTools maps each known agent tool to the index file it reads.
var builtinTools = map[string]string{
	"generic":     "CONTEXT_INDEX.md",
	"codex":       "AGENTS.md",
	"claude-code": "CLAUDE.md",
	"copilot":     ".github/copilot-instructions.md",
}

// ToolMap resolves tool names to index file paths relative to the project root.
type ToolMap struct {
	definitions map[string]string
}

// NewToolMap creates a ToolMap with built-in definitions and optional custom overrides.
func NewToolMap(customDefs []config.ToolDefinition) *ToolMap {
	defs := make(map[string]string, len(builtinTools)+len(customDefs))
	for name, file := range builtinTools {
		defs[name] = file
	}
	for _, td := range customDefs {
		defs[td.Name] = td.File
	}
	return &ToolMap{definitions: defs}
}

// Resolve returns the index file for a tool name.
func (tm *ToolMap) Resolve(toolName string) (string, error) {
	file, ok := tm.definitions[toolName]
	if !ok {
		return "", fmt.Errorf("unknown tool '%s' — define it in index.tool_definitions: [{name: %s, file: %s.md}]", toolName, toolName, toolName)
	}
	return file, nil
}

// ResolveAll resolves every tool name, dropping duplicate files while keeping
// the first occurrence's order.
func (tm *ToolMap) ResolveAll(toolNames []string) ([]string, error) {
	seen := make(map[string]bool, len(toolNames))
	files := make([]string, 0, len(toolNames))
	for _, name := range toolNames {
		file, err := tm.Resolve(name)
		if err != nil {
			return nil, err
		}
		if seen[file] {
			continue
		}
		seen[file] = true
		files = append(files, file)
	}
	return files, nil
}

// KnownTools returns all known tool names (built-in + custom), sorted.
func (tm *ToolMap) KnownTools() []string {
	names := make([]string, 0, len(tm.definitions))
	for name := range tm.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCustom returns whether a tool name is a custom definition (not built-in).
func (tm *ToolMap) IsCustom(toolName string) bool {
	_, isBuiltin := builtinTools[toolName]
	_, isDefined := tm.definitions[toolName]
	return isDefined && !isBuiltin
}
