// Package calendar provides a client for interacting with the Google Calendar API.
//
// The client lists and creates events, reschedules them, manages guest lists
// and responses, and queries free/busy information across calendars. It
// supports multiple Google accounts through a google.TokenProvider.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClientForAccount(ctx, "default")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List this week's events
//	events, err := client.ListEvents(ctx, calendar.PrimaryCalendarID, time.Now(), time.Now().AddDate(0, 0, 7), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
