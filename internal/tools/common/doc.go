// Package common provides shared helpers for the MCP tool packages:
// argument parsing and the instrumented handler wrapper that records
// tool metrics, spans and audit log entries.
package common
