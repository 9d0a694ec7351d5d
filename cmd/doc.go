// Package cmd implements the nox-mcp command-line interface.
//
// Commands:
//   - serve: run the MCP server over stdio or streamable HTTP
//   - sessions list, sessions run: drive nox directly through the same client
//   - config show, config defaults: print configuration as YAML
//   - generate-docs: write tool documentation as markdown or YAML
//   - version: print version information
//
// Configuration is layered by internal/config: defaults, an optional YAML
// file given with --config, NOX_MCP_* environment variables and flags.
package cmd
