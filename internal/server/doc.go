// Package server provides the shared MCP server context and the HTTP side of
// the nox MCP server.
//
// # Key Components
//
// ServerContext carries the nox client, the metrics recorder and the audit
// logger to tool and resource handlers. It is created once per process and
// cancelled on shutdown.
//
// HTTPServer mounts the streamable HTTP transport at /mcp next to the
// Kubernetes style probes:
//   - /healthz: liveness
//   - /readyz: readiness, false while shutting down
//   - /healthz/detailed: uptime and whether nox resolves on PATH
//
// MetricsServer exposes the Prometheus registry of an instrumentation
// provider on a dedicated port (default :9090).
package server
