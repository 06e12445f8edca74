package config

// Config represents the dirctx.yaml (or dirctx.toml) configuration file.
type Config struct {
	Version int `yaml:"version" toml:"version"`
	// MaxDepth is a pointer so an explicit 0 (root only) differs from unset.
	MaxDepth     *int     `yaml:"max_depth,omitempty" toml:"max_depth,omitempty"`
	Concurrency  int      `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	ArtifactFile string   `yaml:"artifact_file,omitempty" toml:"artifact_file,omitempty"`
	IgnoreFiles  []string `yaml:"ignore_files,omitempty" toml:"ignore_files,omitempty"`
	// Ignore holds inline patterns evaluated after the ignore files.
	Ignore     []string      `yaml:"ignore,omitempty" toml:"ignore,omitempty"`
	Extensions []string      `yaml:"extensions,omitempty" toml:"extensions,omitempty"`
	Filenames  []string      `yaml:"filenames,omitempty" toml:"filenames,omitempty"`
	Index      IndexConfig   `yaml:"index,omitempty" toml:"index,omitempty"`
	History    HistoryConfig `yaml:"history,omitempty" toml:"history,omitempty"`
	Cache      CacheConfig   `yaml:"cache,omitempty" toml:"cache,omitempty"`
}

// IndexConfig controls the project-wide index written after each run.
type IndexConfig struct {
	// Enabled is a pointer so a layer can switch the index off explicitly.
	Enabled         *bool            `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Tools           []string         `yaml:"tools,omitempty" toml:"tools,omitempty"`
	Template        string           `yaml:"template,omitempty" toml:"template,omitempty"`
	ToolDefinitions []ToolDefinition `yaml:"tool_definitions,omitempty" toml:"tool_definitions,omitempty"`
}

// IsEnabled reports whether the index is written. Unset means enabled.
func (c IndexConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ToolDefinition maps a tool name to the index file it reads, or overrides a
// built-in mapping.
type ToolDefinition struct {
	Name string `yaml:"name" toml:"name"`
	File string `yaml:"file" toml:"file"`
}

// HistoryConfig controls the run-history ledger.
type HistoryConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	// Path overrides the default database location.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// IsEnabled reports whether runs are recorded. Unset means enabled.
func (c HistoryConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	Disabled bool   `yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	Dir      string `yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultMaxDepth     = 8
	DefaultConcurrency  = 1
	DefaultArtifactFile = ".context.yaml"
)

// DefaultIgnoreFiles are read from the project root, in order.
var DefaultIgnoreFiles = []string{".gitignore", ".contextignore"}

// DefaultIndexTools are written when the index is enabled and no tools are
// configured.
var DefaultIndexTools = []string{"generic"}

// Defaults returns the configuration used when no config file exists.
func Defaults() *Config {
	cfg := &Config{Version: 1}
	cfg.ApplyDefaults()
	return cfg
}

// Depth returns the effective max_depth.
func (c *Config) Depth() int {
	if c.MaxDepth == nil {
		return DefaultMaxDepth
	}
	return *c.MaxDepth
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.MaxDepth == nil {
		depth := DefaultMaxDepth
		c.MaxDepth = &depth
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ArtifactFile == "" {
		c.ArtifactFile = DefaultArtifactFile
	}
	if c.IgnoreFiles == nil {
		c.IgnoreFiles = append([]string(nil), DefaultIgnoreFiles...)
	}
	if len(c.Index.Tools) == 0 {
		c.Index.Tools = append([]string(nil), DefaultIndexTools...)
	}
}
