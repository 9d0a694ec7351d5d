package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teemow/nox-mcp/internal/nox"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nox-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("transport", TransportStdio, "")
	fs.String("http-addr", ":8080", "")
	fs.Duration("run-timeout", nox.DefaultRunTimeout, "")
	fs.Bool("debug", false, "")
	return fs
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nox", cfg.Nox.Executable)
	assert.Equal(t, 30*time.Second, cfg.Nox.ListTimeout)
	assert.Equal(t, 300*time.Second, cfg.Nox.RunTimeout)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
nox:
  executable: /opt/nox/bin/nox
  workdir: /src/project
  list_timeout: 10s
  run_timeout: 20m
transport: streamable-http
http_addr: 127.0.0.1:9000
disable_streaming: true
metrics:
  enabled: false
log_format: json
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/opt/nox/bin/nox", cfg.Nox.Executable)
	assert.Equal(t, "/src/project", cfg.Nox.WorkDir)
	assert.Equal(t, 10*time.Second, cfg.Nox.ListTimeout)
	assert.Equal(t, 20*time.Minute, cfg.Nox.RunTimeout)
	assert.Equal(t, TransportStreamableHTTP, cfg.Transport)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.True(t, cfg.DisableStreaming)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
transport: streamable-http
nox:
  run_timeout: 20m
  list_timeout: 10s
`)
	t.Setenv("NOX_MCP_NOX_RUN_TIMEOUT", "15m")
	t.Setenv("NOX_MCP_NOX_LIST_TIMEOUT", "45s")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--run-timeout=7m", "--debug"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Minute, cfg.Nox.RunTimeout, "flag beats env and file")
	assert.Equal(t, 45*time.Second, cfg.Nox.ListTimeout, "env beats file")
	assert.Equal(t, TransportStreamableHTTP, cfg.Transport, "unset flag does not override file")
	assert.True(t, cfg.Debug)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown transport", body: "transport: sse\n"},
		{name: "bare integer timeout", body: "nox:\n  run_timeout: 300\n"},
		{name: "empty executable", body: "nox:\n  executable: \"\"\n"},
		{name: "bad log format", body: "log_format: xml\n"},
		{name: "invalid yaml", body: "nox: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Transport = TransportStreamableHTTP
	cfg.HTTPAddr = ""
	assert.ErrorContains(t, cfg.Validate(), "http_addr")

	cfg = Default()
	cfg.Metrics.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "metrics.addr")

	cfg.Metrics.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Nox.WorkDir = "/src"
	cfg.Nox.RunTimeout = 10 * time.Minute

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_timeout: 10m0s")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "nox")

	loaded, err := Load(writeConfig(t, string(data)), nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestClientOptions(t *testing.T) {
	cfg := Default()
	cfg.Nox.Executable = "nox-3.12"
	cfg.Nox.ListTimeout = 5 * time.Second

	client := nox.NewClient(cfg.ClientOptions()...)
	assert.Equal(t, "nox-3.12", client.Executable())
	assert.Equal(t, 5*time.Second, client.ListTimeout())
	assert.Equal(t, cfg.Nox.RunTimeout, client.RunTimeout())
}
