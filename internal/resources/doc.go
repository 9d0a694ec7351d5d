// Package resources provides MCP resources backed by nox.
//
// nox://sessions exposes the session listing as a read-only JSON document,
// so clients can read it as context without calling a tool.
package resources
