package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a dirctx.yaml or dirctx.toml configuration file.
// The format is chosen by extension; anything but .toml is read as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes config bytes without validating them.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	if cfg.MaxDepth != nil && *cfg.MaxDepth < 0 {
		errs = append(errs, fmt.Sprintf("max_depth %d must not be negative", *cfg.MaxDepth))
	}
	if cfg.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("concurrency %d must not be negative", cfg.Concurrency))
	}

	if cfg.ArtifactFile != "" && (strings.ContainsAny(cfg.ArtifactFile, `/\`) || cfg.ArtifactFile == "." || cfg.ArtifactFile == "..") {
		errs = append(errs, fmt.Sprintf("artifact_file '%s' must be a plain file name", cfg.ArtifactFile))
	}

	for i, name := range cfg.IgnoreFiles {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("ignore_files[%d]: empty file name", i))
		}
	}

	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Sprintf("extensions[%d]: '%s' must start with '.' — e.g. '.tf'", i, ext))
		}
	}

	for i, td := range cfg.Index.ToolDefinitions {
		prefix := fmt.Sprintf("index.tool_definitions[%d]", i)
		if td.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		}
		if td.File == "" {
			errs = append(errs, fmt.Sprintf("%s: 'file' is required", prefix))
		} else if filepath.IsAbs(td.File) || strings.HasPrefix(filepath.ToSlash(filepath.Clean(td.File)), "../") {
			errs = append(errs, fmt.Sprintf("%s: 'file' must be a path inside the project", prefix))
		}
	}

	for i, tool := range cfg.Index.Tools {
		if strings.TrimSpace(tool) == "" {
			errs = append(errs, fmt.Sprintf("index.tools[%d]: empty tool name", i))
		}
	}

	return errs
}
