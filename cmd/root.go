package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/nox-mcp/internal/config"
	"github.com/teemow/nox-mcp/internal/logging"
	"github.com/teemow/nox-mcp/internal/nox"
)

// rootCmd represents the base command for the nox-mcp application
var rootCmd = &cobra.Command{
	Use:   "nox-mcp",
	Short: "MCP server for listing and running nox sessions",
	Long: `nox-mcp exposes the nox task runner to AI assistants through the
Model Context Protocol (MCP).

It can run as:
  - An MCP server over stdio or streamable HTTP (serve)
  - A small CLI around the same nox client (sessions list, sessions run)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configFile is the path given with --config
var configFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nox-mcp version %s\n" .Version}}`)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML config file")
	pf.String("nox-executable", nox.DefaultExecutable, "nox executable name or path (env: NOX_MCP_NOX_EXECUTABLE)")
	pf.String("workdir", "", "Directory to run nox in, containing noxfile.py (env: NOX_MCP_NOX_WORKDIR)")
	pf.Duration("list-timeout", nox.DefaultListTimeout, "Default timeout for listing sessions (env: NOX_MCP_NOX_LIST_TIMEOUT)")
	pf.Duration("run-timeout", nox.DefaultRunTimeout, "Default timeout for running sessions (env: NOX_MCP_NOX_RUN_TIMEOUT)")
	pf.Bool("debug", false, "Enable debug logging (env: NOX_MCP_DEBUG)")
	pf.String("log-format", logging.FormatText, "Log format: text or json (env: NOX_MCP_LOG_FORMAT)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig resolves the configuration for cmd and installs the logger it
// describes as the slog default. Logs always go to stderr.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(os.Stderr, cfg.LogFormat, cfg.Debug)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
