// Package cmd implements the command-line interface for julian.
//
// This package provides the following commands:
//   - serve: Start the MCP server with calendar tools, resources and prompts
//   - slots: Find free meeting slots from the command line
//   - auth: Authorize a Google account
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
