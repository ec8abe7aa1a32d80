// Package common holds helpers shared by the MCP tool packages: account
// resolution, error results and the instrumentation wrapper every tool
// handler is registered through.
package common
