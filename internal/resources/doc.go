// Package resources provides MCP resources describing the current account.
// Resources are read-only data sources that MCP clients can fetch without
// calling a tool: the Google profile and the calendar settings that drive
// free-slot searches.
//
// The account is taken from the X-Julian-Account header on HTTP and falls
// back to "default".
package resources
