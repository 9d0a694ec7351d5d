package config

import (
	"fmt"
	"time"

	"github.com/teemow/nox-mcp/internal/logging"
	"github.com/teemow/nox-mcp/internal/nox"
)

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. NOX_MCP_NOX_RUN_TIMEOUT for nox.run_timeout.
const EnvPrefix = "NOX_MCP"

// Config is the server configuration.
type Config struct {
	Nox              NoxConfig     `mapstructure:"nox" yaml:"nox"`
	Transport        string        `mapstructure:"transport" yaml:"transport"`
	HTTPAddr         string        `mapstructure:"http_addr" yaml:"http_addr"`
	DisableStreaming bool          `mapstructure:"disable_streaming" yaml:"disable_streaming"`
	Metrics          MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Debug            bool          `mapstructure:"debug" yaml:"debug"`
	LogFormat        string        `mapstructure:"log_format" yaml:"log_format"`
}

// NoxConfig configures how nox is invoked.
type NoxConfig struct {
	// Executable is the name looked up on PATH, or an absolute path.
	Executable string `mapstructure:"executable" yaml:"executable"`
	// WorkDir is the directory nox runs in. Empty means the server's
	// working directory.
	WorkDir     string        `mapstructure:"workdir" yaml:"workdir"`
	ListTimeout time.Duration `mapstructure:"list_timeout" yaml:"list_timeout"`
	RunTimeout  time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
}

// MetricsConfig configures the dedicated Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Nox: NoxConfig{
			Executable:  nox.DefaultExecutable,
			ListTimeout: nox.DefaultListTimeout,
			RunTimeout:  nox.DefaultRunTimeout,
		},
		Transport: TransportStdio,
		HTTPAddr:  ":8080",
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		LogFormat: logging.FormatText,
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if c.Nox.Executable == "" {
		return fmt.Errorf("nox.executable must not be empty")
	}
	// Bare YAML integers decode as nanoseconds; require a unit in practice.
	if c.Nox.ListTimeout < time.Second {
		return fmt.Errorf("nox.list_timeout must be at least 1s, got %s", c.Nox.ListTimeout)
	}
	if c.Nox.RunTimeout < time.Second {
		return fmt.Errorf("nox.run_timeout must be at least 1s, got %s", c.Nox.RunTimeout)
	}

	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport %q (supported: %s, %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}

	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unsupported log_format %q (supported: %s, %s)", c.LogFormat, logging.FormatText, logging.FormatJSON)
	}

	if c.Transport == TransportStreamableHTTP && c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required for the %s transport", TransportStreamableHTTP)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// ClientOptions returns the nox client options for this configuration.
func (c Config) ClientOptions() []nox.Option {
	return []nox.Option{
		nox.WithExecutable(c.Nox.Executable),
		nox.WithWorkDir(c.Nox.WorkDir),
		nox.WithDefaultTimeouts(c.Nox.ListTimeout, c.Nox.RunTimeout),
	}
}
