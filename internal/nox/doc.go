// Package nox runs the nox task runner as a child process.
//
// Two operations are offered:
//
//   - ListSessions runs `nox --list --json` and returns the reported sessions
//     as open-ended maps.
//   - RunSessions runs `nox [-s name...] [-t tag...] [-k keywords] [-p python]`
//     and returns the exit code with the captured stdout and stderr.
//
// The executable is looked up on PATH at every call. Session names and tags
// must match ^[A-Za-z0-9_-]+$ and are checked before anything is spawned.
// nox is always executed directly, never through a shell.
//
// Every call is bounded by a timeout. On Unix the child runs in its own
// process group and the whole group is killed when the timeout expires.
//
// Failures are returned as *Error values whose kind can be tested with
// errors.Is against ErrExecutableNotFound, ErrInvalidInput, ErrTimeout,
// ErrCommandFailed, ErrMalformedOutput and ErrUnexpected. UserMessage turns
// any of them into a message suitable for an MCP client.
//
// Example usage:
//
//	client := nox.NewClient(nox.WithWorkDir("/src/project"))
//
//	sessions, err := client.ListSessions(ctx, 0)
//	if err != nil {
//	    return nox.UserMessage(err)
//	}
//
//	result, err := client.RunSessions(ctx, nox.RunRequest{
//	    Sessions: []string{"tests"},
//	    Python:   "3.12",
//	})
package nox
