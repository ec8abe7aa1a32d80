// Package server holds the runtime state and transports of the julian MCP server.
//
// ServerContext caches one Calendar client per Google account, resolves the
// account's email for attendee matching and builds scheduling planners with
// the configured defaults. Tokens come from the file token store unless a
// different TokenProvider is supplied.
//
// HTTPServer exposes the MCP server over streamable HTTP at /mcp. Clients pick
// the Google account with the X-Julian-Account header; without it tools fall
// back to their account argument and then to "default". SessionTracker counts
// connected sessions through MCP server hooks, HealthChecker serves the
// /healthz and /readyz probes and MetricsServer publishes Prometheus metrics
// on a separate port.
package server
