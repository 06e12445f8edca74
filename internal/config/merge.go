package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base.
// This implements the hierarchical merge semantics:
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - scalars (concurrency, artifact_file, paths): non-zero overlay wins
//   - max_depth: overlay wins when set, including an explicit 0
//   - ignore_files, index.tools: overlay replaces base when set
//   - ignore, extensions, filenames: concatenate (base first), duplicates dropped
//   - index.tool_definitions: merge by name, same name in overlay replaces base
//   - enabled flags: overlay wins when set
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.MaxDepth = pickIntPtr(base.MaxDepth, overlay.MaxDepth)
	result.Concurrency = pickInt(base.Concurrency, overlay.Concurrency)
	result.ArtifactFile = pickString(base.ArtifactFile, overlay.ArtifactFile)

	result.IgnoreFiles = base.IgnoreFiles
	if overlay.IgnoreFiles != nil {
		result.IgnoreFiles = overlay.IgnoreFiles
	}

	result.Ignore = concatUnique(base.Ignore, overlay.Ignore)
	result.Extensions = concatUnique(base.Extensions, overlay.Extensions)
	result.Filenames = concatUnique(base.Filenames, overlay.Filenames)

	result.Index = IndexConfig{
		Enabled:         pickBool(base.Index.Enabled, overlay.Index.Enabled),
		Tools:           base.Index.Tools,
		Template:        pickString(base.Index.Template, overlay.Index.Template),
		ToolDefinitions: mergeNamedToolDefs(base.Index.ToolDefinitions, overlay.Index.ToolDefinitions),
	}
	if len(overlay.Index.Tools) > 0 {
		result.Index.Tools = overlay.Index.Tools
	}

	result.History = HistoryConfig{
		Enabled: pickBool(base.History.Enabled, overlay.History.Enabled),
		Path:    pickString(base.History.Path, overlay.History.Path),
	}
	result.Cache = CacheConfig{
		Disabled: base.Cache.Disabled || overlay.Cache.Disabled,
		Dir:      pickString(base.Cache.Dir, overlay.Cache.Dir),
	}

	return result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
// Returns an error if any version mismatch is found.
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // neither declares; validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickIntPtr(base, overlay *int) *int {
	if overlay != nil {
		return overlay
	}
	return base
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickBool(base, overlay *bool) *bool {
	if overlay != nil {
		return overlay
	}
	return base
}

func concatUnique(base, overlay []string) []string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(base)+len(overlay))
	var result []string
	for _, list := range [][]string{base, overlay} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func mergeNamedToolDefs(base, overlay []ToolDefinition) []ToolDefinition {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	overlayNames := make(map[string]bool, len(overlay))
	for _, td := range overlay {
		overlayNames[td.Name] = true
	}

	var result []ToolDefinition
	for _, td := range base {
		if !overlayNames[td.Name] {
			result = append(result, td)
		}
	}

	result = append(result, overlay...)

	return result
}
