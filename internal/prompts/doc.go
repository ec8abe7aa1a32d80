// Package prompts provides MCP prompts that turn a client's model into a
// calendar assistant. Each prompt carries the instructions for one task and
// names the calendar tools it relies on:
//
//   - summarize_day: summarize today's or this week's meetings
//   - find_free_slots: propose a short list of free slots
//   - cancel_todays_meetings: decline every meeting today
//   - move_meeting: find a new time for a meeting and move or decline it
//   - calendar_assistant: the general assistant that delegates to the others
package prompts
