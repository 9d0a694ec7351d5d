package nox

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by Client matches exactly one of these
// with errors.Is.
var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTimeout            = errors.New("timed out")
	ErrCommandFailed      = errors.New("command failed")
	ErrMalformedOutput    = errors.New("malformed output")
	ErrUnexpected         = errors.New("unexpected error")
)

// Operation names used in Error.Op.
const (
	OpList = "list"
	OpRun  = "run"
)

// Error describes a failed nox operation.
type Error struct {
	// Op is the operation that failed (OpList or OpRun).
	Op string

	// Kind is one of the Err* sentinels above.
	Kind error

	// Field and Value identify the rejected input for ErrInvalidInput,
	// e.g. "session name" and "bad;name".
	Field string
	Value string

	// Stderr holds what nox printed for ErrCommandFailed.
	Stderr string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nox %s: %v", e.Op, e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s %q", e.Field, e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, " (stderr: %s)", s)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage renders err as the message shown to an MCP client or CLI user.
// It never includes Go error chains or internal paths.
func UserMessage(err error) string {
	var ne *Error
	if !errors.As(err, &ne) {
		return "Unexpected error running nox"
	}

	switch {
	case errors.Is(ne.Kind, ErrExecutableNotFound):
		return "'nox' executable not found in PATH."
	case errors.Is(ne.Kind, ErrInvalidInput):
		field := ne.Field
		if field == "" {
			field = "input"
		}
		return fmt.Sprintf("Invalid %s: %s", field, ne.Value)
	case errors.Is(ne.Kind, ErrTimeout):
		if ne.Op == OpList {
			return "nox --list timed out"
		}
		return "nox run timed out"
	case errors.Is(ne.Kind, ErrCommandFailed):
		msg := "Error running 'nox --list'"
		if s := strings.TrimSpace(ne.Stderr); s != "" {
			msg += ": " + s
		}
		return msg
	case errors.Is(ne.Kind, ErrMalformedOutput):
		return "Invalid JSON returned by nox --list"
	default:
		return "Unexpected error running nox"
	}
}
