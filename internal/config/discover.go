package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const configDirName = "dirctx"

// ConfigFileNames are the project config file names, in lookup order.
var ConfigFileNames = []string{"dirctx.yaml", "dirctx.yml", "dirctx.toml"}

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config file and its load status.
type ConfigLayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level config path. Empty skips the layer.
	ProjectPath string

	// SystemConfigPath overrides the default system config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	SystemConfigPath string

	// UserConfigPath overrides the default user config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	UserConfigPath string

	// NoInherit skips the system and user layers.
	NoInherit bool
}

// DiscoverPaths returns the ordered list of config file paths to check,
// from lowest precedence (system) to highest (project).
// Paths are deduplicated by resolved absolute path.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	var layers []ConfigLayerInfo
	seen := make(map[string]bool)

	addLayer := func(level ConfigLevel, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, ConfigLayerInfo{
			Path:  path,
			Level: level,
		})
	}

	if !opts.NoInherit {
		sysPath := opts.SystemConfigPath
		if sysPath == "" {
			sysPath = defaultSystemConfigPath()
		}
		addLayer(LevelSystem, sysPath)

		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath = defaultUserConfigPath()
		}
		addLayer(LevelUser, userPath)
	}

	// Project-level config (always last, highest precedence).
	addLayer(LevelProject, opts.ProjectPath)

	return layers
}

// FindProjectConfig returns the first config file present in root, or ""
// when there is none.
func FindProjectConfig(root string) string {
	for _, name := range ConfigFileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadLayered discovers, loads and merges every config layer, then applies
// defaults. Missing layers are skipped. A layer that exists but fails to
// load is fatal for the project layer and recorded in the returned info for
// the others.
func LoadLayered(opts DiscoverOptions) (*Config, []ConfigLayerInfo, error) {
	layers := DiscoverPaths(opts)
	var configs []*Config

	for i := range layers {
		layer := &layers[i]
		cfg, err := Load(layer.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			layer.Err = err
			if layer.Level == LevelProject {
				return nil, layers, err
			}
			continue
		}
		layer.Loaded = true
		configs = append(configs, cfg)
	}

	if len(configs) == 0 {
		return Defaults(), layers, nil
	}

	merged, err := MergeAll(configs)
	if err != nil {
		return nil, layers, fmt.Errorf("merging config layers: %w", err)
	}
	merged.ApplyDefaults()
	return merged, layers, nil
}

// defaultSystemConfigPath returns the platform-standard system config path.
func defaultSystemConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, configDirName, ConfigFileNames[0])
	default: // linux, darwin, etc.
		return filepath.Join("/etc", configDirName, ConfigFileNames[0])
	}
}

// defaultUserConfigPath returns the platform-standard user config path.
func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, ConfigFileNames[0])
}

// EnvNoInherit returns true if DIRCTX_NO_INHERIT is set to "1" or "true".
func EnvNoInherit() bool {
	return envBoolTrue("DIRCTX_NO_INHERIT")
}

// envBoolTrue returns true if the env var is set to "1" or "true" (case-insensitive).
func envBoolTrue(key string) bool {
	v := os.Getenv(key)
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}
