// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar.
//
// The read tools list events relative to "now" in the primary calendar's time
// zone and search for free slots, either on the user's own calendar or across
// several users via free/busy. Slot searches return a JSON array of
// {start, end} RFC 3339 pairs.
//
// The write tools create, move and decline events and add guests. They are
// only registered when the server is not read-only.
//
// Every tool accepts an optional "account" argument; over HTTP the
// X-Julian-Account header takes priority.
package calendar_tools
