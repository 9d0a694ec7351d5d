package nox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps reading output after the process
// group has been killed or nox itself has exited.
const waitDelay = 2 * time.Second

// Command is one process invocation. Argv[0] is the resolved executable.
type Command struct {
	Argv    []string
	Dir     string
	Timeout time.Duration
}

// Outcome is what a finished process produced.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs a single command without a shell.
//
// Run returns a nil error whenever the process ran to completion, whatever
// its exit code. It returns an error wrapping ErrTimeout when the command's
// timeout expired, after the process and its descendants have been killed.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Outcome, error)
}

// ProcessExecutor is the Executor backed by os/exec.
type ProcessExecutor struct{}

// Run implements Executor.
func (ProcessExecutor) Run(ctx context.Context, c Command) (Outcome, error) {
	if len(c.Argv) == 0 {
		return Outcome{}, errors.New("empty command")
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	err := cmd.Run()
	out := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("after %s: %w", c.Timeout, ErrTimeout)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	default:
		return out, err
	}
}
