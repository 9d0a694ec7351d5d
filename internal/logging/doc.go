// Package logging provides structured logging utilities for nox-mcp.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Bounded rendering of nox command lines
//   - Text or JSON handlers selected by configuration
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "nox_run_session")
//	logger.Info("nox run finished",
//	    logging.ExitCode(result.ExitCode),
//	    logging.Status(logging.StatusSuccess))
//
// # Output
//
// When serving over stdio, stdout carries the MCP protocol. Loggers built with
// NewLogger must therefore write to stderr in that mode.
package logging
