package nox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/nox-mcp/internal/instrumentation"
	"github.com/teemow/nox-mcp/internal/logging"
)

// Client runs the nox executable. It holds no per-call state and is safe for
// concurrent use; every call spawns its own process.
type Client struct {
	executable  string
	dir         string
	listTimeout time.Duration
	runTimeout  time.Duration

	lookPath func(string) (string, error)
	executor Executor
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithExecutable sets the executable name or path (default "nox").
func WithExecutable(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.executable = name
		}
	}
}

// WithWorkDir runs nox in dir, where it looks for noxfile.py.
// Empty means the server's working directory.
func WithWorkDir(dir string) Option {
	return func(c *Client) { c.dir = dir }
}

// WithDefaultTimeouts sets the timeouts used when a call passes zero.
func WithDefaultTimeouts(list, run time.Duration) Option {
	return func(c *Client) {
		if list > 0 {
			c.listTimeout = list
		}
		if run > 0 {
			c.runTimeout = run
		}
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *Client) { c.lookPath = fn }
}

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(c *Client) { c.executor = e }
}

// WithMetrics records nox process metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client. Resolution of the executable is deferred to
// each call, so a nox installed after startup is picked up.
func NewClient(opts ...Option) *Client {
	c := &Client{
		executable:  DefaultExecutable,
		listTimeout: DefaultListTimeout,
		runTimeout:  DefaultRunTimeout,
		lookPath:    exec.LookPath,
		executor:    ProcessExecutor{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Executable returns the configured executable name.
func (c *Client) Executable() string { return c.executable }

// ListTimeout returns the default listing timeout.
func (c *Client) ListTimeout() time.Duration { return c.listTimeout }

// RunTimeout returns the default run timeout.
func (c *Client) RunTimeout() time.Duration { return c.runTimeout }

// Resolve locates the executable on PATH.
func (c *Client) Resolve() (string, error) {
	return c.resolve("resolve")
}

func (c *Client) resolve(op string) (string, error) {
	path, err := c.lookPath(c.executable)
	if err != nil {
		return "", &Error{Op: op, Kind: ErrExecutableNotFound, Err: err}
	}
	return path, nil
}

// ListSessions runs `nox --list --json` and returns the reported sessions
// unchanged. Empty or whitespace-only output is an empty list. A timeout of
// zero uses the client's default.
func (c *Client) ListSessions(ctx context.Context, timeout time.Duration) (sessions []Session, err error) {
	if timeout <= 0 {
		timeout = c.listTimeout
	}

	ctx, span := instrumentation.StartCommandSpan(ctx, instrumentation.CommandList,
		instrumentation.NewSpanAttributeBuilder().WithTimeoutSeconds(timeout.Seconds()).Build()...)
	defer span.End()

	start := time.Now()
	exitCode := 0
	defer func() { c.observe(ctx, span, instrumentation.CommandList, start, exitCode, err) }()

	exe, err := c.resolve(OpList)
	if err != nil {
		return nil, err
	}

	out, err := c.spawn(ctx, instrumentation.CommandList, Command{Argv: ListArgs(exe), Dir: c.dir, Timeout: timeout})
	if err != nil {
		return nil, classify(OpList, err)
	}

	exitCode = out.ExitCode
	if out.ExitCode != 0 {
		return nil, &Error{
			Op:     OpList,
			Kind:   ErrCommandFailed,
			Stderr: out.Stderr,
			Err:    fmt.Errorf("exit status %d", out.ExitCode),
		}
	}

	return parseSessions(out.Stdout)
}

// parseSessions decodes a listing. Only empty or whitespace-only output counts
// as "no sessions"; anything else must be a JSON array of objects.
func parseSessions(stdout string) ([]Session, error) {
	if strings.TrimSpace(stdout) == "" {
		return []Session{}, nil
	}

	var sessions []Session
	if err := json.Unmarshal([]byte(stdout), &sessions); err != nil {
		return nil, &Error{Op: OpList, Kind: ErrMalformedOutput, Err: err}
	}
	if sessions == nil {
		return nil, &Error{Op: OpList, Kind: ErrMalformedOutput, Err: errors.New("listing is not an array")}
	}
	return sessions, nil
}

// RunSessions validates the request, runs nox and returns its exit code and
// output. A non-zero exit code is returned as a result, not an error.
func (c *Client) RunSessions(ctx context.Context, req RunRequest) (result *RunResult, err error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.runTimeout
	}

	ctx, span := instrumentation.StartCommandSpan(ctx, instrumentation.CommandRun,
		instrumentation.NewSpanAttributeBuilder().
			WithSelection(len(req.Sessions), len(req.Tags)).
			WithTimeoutSeconds(timeout.Seconds()).
			Build()...)
	defer span.End()

	start := time.Now()
	exitCode := 0
	defer func() { c.observe(ctx, span, instrumentation.CommandRun, start, exitCode, err) }()

	exe, err := c.resolve(OpRun)
	if err != nil {
		return nil, err
	}
	if err := ValidateNames(OpRun, FieldSession, req.Sessions); err != nil {
		return nil, err
	}
	if err := ValidateNames(OpRun, FieldTag, req.Tags); err != nil {
		return nil, err
	}

	out, err := c.spawn(ctx, instrumentation.CommandRun, Command{Argv: RunArgs(exe, req), Dir: c.dir, Timeout: timeout})
	if err != nil {
		return nil, classify(OpRun, err)
	}

	exitCode = out.ExitCode
	return &RunResult{ExitCode: out.ExitCode, Stdout: out.Stdout, Stderr: out.Stderr}, nil
}

// spawn runs one process and tracks it in the active process gauge.
func (c *Client) spawn(ctx context.Context, command string, cmd Command) (Outcome, error) {
	c.logger.DebugContext(ctx, "starting nox",
		logging.Command(command),
		logging.Argv(cmd.Argv),
		logging.Timeout(cmd.Timeout))

	c.metrics.ProcessStarted(ctx, command)
	defer c.metrics.ProcessFinished(ctx, command)

	return c.executor.Run(ctx, cmd)
}

// observe records the metrics, span status and log line for a finished call.
func (c *Client) observe(ctx context.Context, span trace.Span, command string, start time.Time, exitCode int, err error) {
	elapsed := time.Since(start)

	status := instrumentation.StatusSuccess
	switch {
	case errors.Is(err, ErrTimeout):
		status = instrumentation.StatusTimeout
	case err != nil:
		status = instrumentation.StatusError
	}
	c.metrics.RecordNoxCommand(ctx, command, status, exitCode, elapsed)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.WarnContext(ctx, "nox command failed",
			logging.Command(command),
			logging.Status(status),
			logging.Duration(elapsed),
			logging.Err(err))
		return
	}

	instrumentation.SetSpanExitCode(span, exitCode)
	instrumentation.SetSpanSuccess(span)
	c.logger.DebugContext(ctx, "nox command finished",
		logging.Command(command),
		logging.ExitCode(exitCode),
		logging.Duration(elapsed))
}

// classify turns an executor error into a typed Error.
func classify(op string, err error) error {
	if errors.Is(err, ErrTimeout) {
		return &Error{Op: op, Kind: ErrTimeout, Err: err}
	}
	return &Error{Op: op, Kind: ErrUnexpected, Err: err}
}
