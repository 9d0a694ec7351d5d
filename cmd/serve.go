package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/nox-mcp/internal/config"
	"github.com/teemow/nox-mcp/internal/instrumentation"
	"github.com/teemow/nox-mcp/internal/logging"
	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/resources"
	"github.com/teemow/nox-mcp/internal/server"
	"github.com/teemow/nox-mcp/internal/tools/nox_tools"
)

// serverName is the MCP implementation name announced to clients.
const serverName = "nox"

const serverInstructions = `A Model Context Protocol server for running nox sessions.
Useful for projects that use nox for test automation and development tasks.

Nox is a Python automation tool for running tests, linting, and other
development tasks in isolated environments. This server lets you discover
and execute nox sessions in a project that has a noxfile.py.

Typical workflow:
1. Use nox_list_sessions to discover available sessions
2. Use nox_run_session to execute one or more sessions

A non-zero exit_code from nox_run_session means a session failed; read
stdout and stderr for details.

The server requires 'nox' to be installed and available in PATH.`

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server exposing the nox_list_sessions and nox_run_session tools.

Transports:
  - stdio: standard input/output, for MCP clients that spawn the server (default)
  - streamable-http: HTTP at /mcp with /healthz, /readyz and /healthz/detailed

With streamable-http, Prometheus metrics are served on a separate address
(default :9090). Tracing and metric exporters are configured through
INSTRUMENTATION_ENABLED, METRICS_EXPORTER, TRACING_EXPORTER and OTEL_* variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().String("transport", config.TransportStdio, "Transport type: stdio or streamable-http (env: NOX_MCP_TRANSPORT)")
	cmd.Flags().String("http-addr", ":8080", "HTTP server address for streamable-http (env: NOX_MCP_HTTP_ADDR)")
	cmd.Flags().Bool("disable-streaming", false, "Disable SSE streaming for streamable-http (env: NOX_MCP_DISABLE_STREAMING)")
	cmd.Flags().Bool("metrics-enabled", true, "Serve Prometheus metrics for streamable-http (env: NOX_MCP_METRICS_ENABLED)")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address (env: NOX_MCP_METRICS_ADDR)")

	return cmd
}

func runServe(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Metrics are scraped over HTTP, which only makes sense for a long-running HTTP server
	if cfg.Transport != config.TransportStdio && cfg.Metrics.Enabled && provider.MetricsHandler() != nil {
		metricsServer, err := startMetricsServer(cfg.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	client := nox.NewClient(append(cfg.ClientOptions(),
		nox.WithMetrics(provider.Metrics()),
		nox.WithLogger(logger),
	)...)
	if path, err := client.Resolve(); err != nil {
		logger.Warn("nox executable not found; tool calls will fail until it is installed",
			slog.String("executable", client.Executable()))
	} else {
		logger.Debug("resolved nox executable", slog.String("path", path))
	}

	serverContext := server.NewServerContext(shutdownCtx, client)
	serverContext.SetLogger(logger)

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer()
	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer(serverName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithInstructions(serverInstructions),
		mcpserver.WithRecovery(),
	)
}

// registerAll registers all MCP tools and resources
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{
			name:     "nox tools",
			register: func() error { return nox_tools.RegisterNoxTools(mcpSrv, sc) },
		},
		{
			name:     "session resources",
			register: func() error { return resources.RegisterSessionResources(mcpSrv, sc) },
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", slog.String("addr", metricsServer.ListenAddr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg config.Config, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             cfg.HTTPAddr,
		DisableStreaming: cfg.DisableStreaming,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.Start()
	}()

	logger.Info("nox MCP server listening",
		slog.String("transport", cfg.Transport),
		slog.String("addr", cfg.HTTPAddr),
		slog.String("endpoint", server.MCPEndpointPath))

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return <-serverDone
	}
}
