package nox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExe = "/opt/bin/nox"

// fakeExecutor records every command it is asked to run and replies with a
// canned outcome.
type fakeExecutor struct {
	mu       sync.Mutex
	commands []Command
	outcome  Outcome
	err      error
}

func (f *fakeExecutor) Run(_ context.Context, cmd Command) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.outcome, f.err
}

func (f *fakeExecutor) calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.commands...)
}

func found(string) (string, error) { return testExe, nil }

func missing(name string) (string, error) {
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func newTestClient(fe *fakeExecutor, opts ...Option) *Client {
	return NewClient(append([]Option{WithLookPath(found), WithExecutor(fe)}, opts...)...)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()

	assert.Equal(t, DefaultExecutable, c.Executable())
	assert.Equal(t, 30*time.Second, c.ListTimeout())
	assert.Equal(t, 300*time.Second, c.RunTimeout())
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient(
		WithExecutable("nox-3.12"),
		WithDefaultTimeouts(5*time.Second, 0),
		WithLogger(nil),
	)

	assert.Equal(t, "nox-3.12", c.Executable())
	assert.Equal(t, 5*time.Second, c.ListTimeout())
	assert.Equal(t, DefaultRunTimeout, c.RunTimeout(), "zero keeps the default")
	assert.NotNil(t, c.logger)
}

func TestClient_ExecutableNotFound(t *testing.T) {
	fe := &fakeExecutor{}
	c := NewClient(WithLookPath(missing), WithExecutor(fe))

	_, err := c.ListSessions(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound))
	assert.Equal(t, "'nox' executable not found in PATH.", UserMessage(err))

	_, err = c.RunSessions(context.Background(), RunRequest{Sessions: []string{"bad;name"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound), "resolution happens before validation")

	_, err = c.Resolve()
	assert.True(t, errors.Is(err, ErrExecutableNotFound))

	assert.Empty(t, fe.calls(), "no process may be spawned")
}

func TestClient_ListSessions(t *testing.T) {
	fe := &fakeExecutor{outcome: Outcome{Stdout: `[{"session": "test"}]`}}
	c := newTestClient(fe, WithWorkDir("/src/project"))

	sessions, err := c.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, Session{"session": "test"}, sessions[0])

	calls := fe.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{testExe, "--list", "--json"}, calls[0].Argv)
	assert.Equal(t, "/src/project", calls[0].Dir)
	assert.Equal(t, DefaultListTimeout, calls[0].Timeout)
}

func TestClient_ListSessions_PassesFieldsThrough(t *testing.T) {
	fe := &fakeExecutor{outcome: Outcome{Stdout: `[
		{"session": "tests-3.12", "name": "tests", "description": "Run the suite", "python": "3.12", "tags": ["ci"], "call_spec": {}},
		{"session": "lint", "python": null}
	]`}}
	c := newTestClient(fe)

	sessions, err := c.ListSessions(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "Run the suite", sessions[0]["description"])
	assert.Equal(t, []any{"ci"}, sessions[0]["tags"])
	assert.Equal(t, map[string]any{}, sessions[0]["call_spec"])
	assert.Contains(t, sessions[1], "python")
	assert.Nil(t, sessions[1]["python"])

	assert.Equal(t, 5*time.Second, fe.calls()[0].Timeout)
}

func TestClient_ListSessions_Output(t *testing.T) {
	tests := []struct {
		name      string
		stdout    string
		wantLen   int
		wantError error
	}{
		{name: "empty", stdout: "", wantLen: 0},
		{name: "whitespace", stdout: " \n\t\n", wantLen: 0},
		{name: "empty array", stdout: "[]", wantLen: 0},
		{name: "not json", stdout: "Sessions defined in noxfile.py:", wantError: ErrMalformedOutput},
		{name: "object", stdout: `{"session": "test"}`, wantError: ErrMalformedOutput},
		{name: "null", stdout: "null", wantError: ErrMalformedOutput},
		{name: "array of strings", stdout: `["test"]`, wantError: ErrMalformedOutput},
		{name: "truncated", stdout: `[{"session": "te`, wantError: ErrMalformedOutput},
		{name: "trailing garbage", stdout: `[] nope`, wantError: ErrMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeExecutor{outcome: Outcome{Stdout: tt.stdout}})

			sessions, err := c.ListSessions(context.Background(), 0)
			if tt.wantError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantError), "got %v", err)
				assert.Nil(t, sessions)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, sessions)
			assert.Len(t, sessions, tt.wantLen)
		})
	}
}

func TestClient_ListSessions_NonZeroExit(t *testing.T) {
	fe := &fakeExecutor{outcome: Outcome{
		ExitCode: 1,
		Stdout:   "[]",
		Stderr:   "Failed to load Noxfile noxfile.py",
	}}
	c := newTestClient(fe)

	_, err := c.ListSessions(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))

	var ne *Error
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "Failed to load Noxfile noxfile.py", ne.Stderr)
	assert.Equal(t, "Error running 'nox --list': Failed to load Noxfile noxfile.py", UserMessage(err))
}

func TestClient_ExecutorErrors(t *testing.T) {
	tests := []struct {
		name     string
		execErr  error
		wantKind error
		listMsg  string
		runMsg   string
	}{
		{
			name:     "timeout",
			execErr:  fmt.Errorf("after 1s: %w", ErrTimeout),
			wantKind: ErrTimeout,
			listMsg:  "nox --list timed out",
			runMsg:   "nox run timed out",
		},
		{
			name:     "spawn failure",
			execErr:  errors.New("fork/exec /opt/bin/nox: permission denied"),
			wantKind: ErrUnexpected,
			listMsg:  "Unexpected error running nox",
			runMsg:   "Unexpected error running nox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeExecutor{err: tt.execErr})

			_, err := c.ListSessions(context.Background(), time.Second)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind))
			assert.Equal(t, tt.listMsg, UserMessage(err))

			result, err := c.RunSessions(context.Background(), RunRequest{Timeout: time.Second})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.wantKind))
			assert.Equal(t, tt.runMsg, UserMessage(err))
		})
	}
}

func TestClient_RunSessions_Argv(t *testing.T) {
	fe := &fakeExecutor{}
	c := newTestClient(fe)

	_, err := c.RunSessions(context.Background(), RunRequest{Sessions: []string{"unit"}, Python: "3.10"})
	require.NoError(t, err)

	calls := fe.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{testExe, "-s", "unit", "-p", "3.10"}, calls[0].Argv)
	assert.Equal(t, DefaultRunTimeout, calls[0].Timeout)
}

func TestClient_RunSessions_KeywordsAndPythonNotValidated(t *testing.T) {
	fe := &fakeExecutor{}
	c := newTestClient(fe)

	_, err := c.RunSessions(context.Background(), RunRequest{
		Keywords: "tests and not (slow or 'py 3.8')",
		Python:   "pypy3.10; echo",
		Timeout:  42 * time.Second,
	})
	require.NoError(t, err)

	calls := fe.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{testExe, "-k", "tests and not (slow or 'py 3.8')", "-p", "pypy3.10; echo"}, calls[0].Argv)
	assert.Equal(t, 42*time.Second, calls[0].Timeout)
}

func TestClient_RunSessions_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		req     RunRequest
		wantMsg string
	}{
		{
			name:    "bad session",
			req:     RunRequest{Sessions: []string{"bad;name"}},
			wantMsg: "Invalid session name: bad;name",
		},
		{
			name:    "bad session after good one",
			req:     RunRequest{Sessions: []string{"lint", "te sts"}},
			wantMsg: "Invalid session name: te sts",
		},
		{
			name:    "empty session",
			req:     RunRequest{Sessions: []string{""}},
			wantMsg: "Invalid session name: ",
		},
		{
			name:    "bad tag",
			req:     RunRequest{Tags: []string{"$(whoami)"}},
			wantMsg: "Invalid tag: $(whoami)",
		},
		{
			name:    "sessions checked before tags",
			req:     RunRequest{Sessions: []string{"a.b"}, Tags: []string{"c d"}},
			wantMsg: "Invalid session name: a.b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeExecutor{}
			c := newTestClient(fe)

			result, err := c.RunSessions(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, tt.wantMsg, UserMessage(err))
			assert.Empty(t, fe.calls(), "no process may be spawned")
		})
	}
}

func TestClient_RunSessions_Result(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
	}{
		{"success", Outcome{ExitCode: 0, Stdout: "Success"}},
		{"session failed", Outcome{ExitCode: 1, Stdout: "nox > Session tests failed.", Stderr: "AssertionError"}},
		{"unusual exit code", Outcome{ExitCode: 3, Stderr: "usage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeExecutor{outcome: tt.outcome})

			result, err := c.RunSessions(context.Background(), RunRequest{})
			require.NoError(t, err, "exit codes are results, not errors")
			assert.Equal(t, &RunResult{
				ExitCode: tt.outcome.ExitCode,
				Stdout:   tt.outcome.Stdout,
				Stderr:   tt.outcome.Stderr,
			}, result)
		})
	}
}

func TestClient_ConcurrentCalls(t *testing.T) {
	fe := &fakeExecutor{outcome: Outcome{Stdout: "[]"}}
	c := newTestClient(fe)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = c.ListSessions(context.Background(), 0)
				return
			}
			_, _ = c.RunSessions(context.Background(), RunRequest{Sessions: []string{fmt.Sprintf("s%d", i)}})
		}(i)
	}
	wg.Wait()

	assert.Len(t, fe.calls(), 16)
}
