package google

import (
	calendar "google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
)

// DefaultOAuthScopes are the Google OAuth scopes requested by julian.
//
// Calendar access covers events, free/busy queries and attendee responses.
// The userinfo scopes resolve the signed-in user's email, which is needed to
// find "my" attendee entry when declining events.
var DefaultOAuthScopes = []string{
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	calendar.CalendarScope,
}
