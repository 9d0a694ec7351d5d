package nox

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := exec.ErrNotFound
	err := fmt.Errorf("wrapped: %w", &Error{Op: OpList, Kind: ErrExecutableNotFound, Err: cause})

	assert.True(t, errors.Is(err, ErrExecutableNotFound))
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.False(t, errors.Is(err, ErrTimeout))

	var ne *Error
	assert.True(t, errors.As(err, &ne))
	assert.Equal(t, OpList, ne.Op)
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  &Error{Op: OpRun, Kind: ErrTimeout},
			want: "nox run: timed out",
		},
		{
			name: "invalid input",
			err:  &Error{Op: OpRun, Kind: ErrInvalidInput, Field: FieldSession, Value: "bad;name"},
			want: `nox run: invalid input: session name "bad;name"`,
		},
		{
			name: "command failed with stderr",
			err:  &Error{Op: OpList, Kind: ErrCommandFailed, Stderr: "noxfile.py not found\n", Err: errors.New("exit status 1")},
			want: "nox list: command failed: exit status 1 (stderr: noxfile.py not found)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  &Error{Op: OpRun, Kind: ErrExecutableNotFound, Err: exec.ErrNotFound},
			want: "'nox' executable not found in PATH.",
		},
		{
			name: "invalid session",
			err:  &Error{Op: OpRun, Kind: ErrInvalidInput, Field: FieldSession, Value: "bad;name"},
			want: "Invalid session name: bad;name",
		},
		{
			name: "invalid tag",
			err:  &Error{Op: OpRun, Kind: ErrInvalidInput, Field: FieldTag, Value: "a b"},
			want: "Invalid tag: a b",
		},
		{
			name: "list timeout",
			err:  &Error{Op: OpList, Kind: ErrTimeout},
			want: "nox --list timed out",
		},
		{
			name: "run timeout",
			err:  &Error{Op: OpRun, Kind: ErrTimeout},
			want: "nox run timed out",
		},
		{
			name: "list failed",
			err:  &Error{Op: OpList, Kind: ErrCommandFailed, Stderr: "boom\n"},
			want: "Error running 'nox --list': boom",
		},
		{
			name: "list failed silently",
			err:  &Error{Op: OpList, Kind: ErrCommandFailed},
			want: "Error running 'nox --list'",
		},
		{
			name: "malformed",
			err:  &Error{Op: OpList, Kind: ErrMalformedOutput},
			want: "Invalid JSON returned by nox --list",
		},
		{
			name: "unexpected hides detail",
			err:  &Error{Op: OpRun, Kind: ErrUnexpected, Err: errors.New("fork/exec /secret/path: permission denied")},
			want: "Unexpected error running nox",
		},
		{
			name: "foreign error",
			err:  errors.New("something else"),
			want: "Unexpected error running nox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
