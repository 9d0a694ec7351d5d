package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"nox-executable":    "nox.executable",
	"workdir":           "nox.workdir",
	"list-timeout":      "nox.list_timeout",
	"run-timeout":       "nox.run_timeout",
	"transport":         "transport",
	"http-addr":         "http_addr",
	"disable-streaming": "disable_streaming",
	"metrics-enabled":   "metrics.enabled",
	"metrics-addr":      "metrics.addr",
	"debug":             "debug",
	"log-format":        "log_format",
}

// Load builds the configuration from, in increasing precedence, the
// defaults, the YAML file at path (optional, skipped when empty), NOX_MCP_*
// environment variables and flags that were set explicitly.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("nox.executable", cfg.Nox.Executable)
	v.SetDefault("nox.workdir", cfg.Nox.WorkDir)
	v.SetDefault("nox.list_timeout", cfg.Nox.ListTimeout)
	v.SetDefault("nox.run_timeout", cfg.Nox.RunTimeout)
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("disable_streaming", cfg.DisableStreaming)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("log_format", cfg.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s not found", path)
			}
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML in the format Load reads.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
