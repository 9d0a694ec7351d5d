package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/nox-mcp/internal/instrumentation"
	"github.com/teemow/nox-mcp/internal/nox"
)

// ServerContext holds the dependencies shared by MCP tool and resource handlers.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	noxClient   *nox.Client
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context around client.
// A nil client is replaced with a default nox.Client.
func NewServerContext(ctx context.Context, client *nox.Client) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if client == nil {
		client = nox.NewClient()
	}

	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		noxClient: client,
		logger:    slog.Default(),
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// NoxClient returns the nox client
func (sc *ServerContext) NoxClient() *nox.Client {
	return sc.noxClient
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by instrumented handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil if auditing is disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger used by instrumented handlers.
func (sc *ServerContext) SetAuditLogger(a *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = a
}

// Logger returns the logger for handler diagnostics.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// SetLogger replaces the logger. A nil logger is ignored.
func (sc *ServerContext) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.logger = l
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
