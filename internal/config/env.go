package config

import (
	"strings"

	"github.com/spf13/viper"
)

// overrideKeys are the settings that DIRCTX_* environment variables and CLI
// flags may override. Nested keys use "." and map to "_" in variable names,
// e.g. index.enabled is DIRCTX_INDEX_ENABLED.
var overrideKeys = []string{
	"max_depth",
	"concurrency",
	"artifact_file",
	"index.enabled",
	"history.enabled",
	"history.path",
	"cache.disabled",
	"cache.dir",
}

// NewViper returns a viper instance bound to the DIRCTX_ environment. Callers
// may bind flags onto the same keys before calling ApplyOverrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DIRCTX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range overrideKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// ApplyOverrides copies every override that v has a value for onto cfg.
// Values from the config files are kept for keys v does not set.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	if v.IsSet("max_depth") {
		depth := v.GetInt("max_depth")
		cfg.MaxDepth = &depth
	}
	if v.IsSet("concurrency") {
		cfg.Concurrency = v.GetInt("concurrency")
	}
	if v.IsSet("artifact_file") {
		cfg.ArtifactFile = v.GetString("artifact_file")
	}
	if v.IsSet("index.enabled") {
		enabled := v.GetBool("index.enabled")
		cfg.Index.Enabled = &enabled
	}
	if v.IsSet("history.enabled") {
		enabled := v.GetBool("history.enabled")
		cfg.History.Enabled = &enabled
	}
	if v.IsSet("history.path") {
		cfg.History.Path = v.GetString("history.path")
	}
	if v.IsSet("cache.disabled") {
		cfg.Cache.Disabled = v.GetBool("cache.disabled")
	}
	if v.IsSet("cache.dir") {
		cfg.Cache.Dir = v.GetString("cache.dir")
	}
}
