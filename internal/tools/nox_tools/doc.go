// Package nox_tools provides the MCP tools for the nox task runner.
//
// The tools are a thin boundary over the nox client: they parse arguments,
// call the client and turn results and failures into MCP tool results.
// Validation and process handling live in the nox package.
//
//   - nox_list_sessions: list the sessions of the project's noxfile
//   - nox_run_session: run sessions selected by name, tag, keyword or python
//     version and return the exit code and captured output
//
// Failures are returned as tool errors carrying a short user-facing message;
// the full error is logged. A non-zero nox exit code is not a failure.
//
// Example MCP tool call:
//
//	{
//	  "tool": "nox_run_session",
//	  "arguments": {
//	    "sessions": ["tests"],
//	    "python": "3.12",
//	    "timeout": 600
//	  }
//	}
package nox_tools
