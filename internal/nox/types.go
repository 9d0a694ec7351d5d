package nox

import "time"

const (
	// DefaultExecutable is the name looked up on PATH when none is configured.
	DefaultExecutable = "nox"

	// DefaultListTimeout bounds `nox --list --json`.
	DefaultListTimeout = 30 * time.Second

	// DefaultRunTimeout bounds a session run.
	DefaultRunTimeout = 300 * time.Second
)

// Session describes one nox session exactly as `nox --list --json` reports it
// (session, python, description, ...). The shape belongs to nox and is passed
// through untouched.
type Session = map[string]any

// RunRequest selects which sessions nox should run. Empty fields are omitted
// from the command line; with no sessions and no tags nox runs its default set.
type RunRequest struct {
	// Sessions are passed with -s, in order.
	Sessions []string

	// Tags are passed with -t, in order.
	Tags []string

	// Keywords is a nox -k expression, passed through as a single argument.
	Keywords string

	// Python selects interpreter versions with -p.
	Python string

	// Timeout bounds the run. Zero means DefaultRunTimeout.
	Timeout time.Duration
}

// RunResult is the literal outcome of a nox run. A non-zero ExitCode means a
// session failed, not that the run could not be performed.
type RunResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}
