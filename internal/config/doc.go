// Package config loads the nox-mcp server configuration.
//
// Values come from built-in defaults, an optional YAML file, NOX_MCP_*
// environment variables and command-line flags, in increasing precedence.
// Keys are dotted paths in the file and underscored in the environment:
//
//	nox:
//	  executable: nox
//	  workdir: /src/project
//	  list_timeout: 30s
//	  run_timeout: 5m
//	transport: streamable-http
//	http_addr: :8080
//	metrics:
//	  enabled: true
//	  addr: :9090
//	log_format: json
//
// NOX_MCP_NOX_RUN_TIMEOUT=10m overrides nox.run_timeout.
//
// Instrumentation exporters are configured separately through the
// variables read by instrumentation.DefaultConfig.
package config
