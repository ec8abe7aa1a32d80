package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/julian/internal/google"
)

var (
	// ErrNotAttendee is returned when the user is not on an event's guest list
	ErrNotAttendee = errors.New("user is not an attendee of this event")

	// ErrNoDateTime is returned when an all-day event is rescheduled with times
	ErrNoDateTime = errors.New("event has no concrete start and end time")
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientWithService wraps an existing Calendar service
func NewClientWithService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2 authentication for a specific account.
// The OAuth token is retrieved from the provided token provider.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider, opts ...option.ClientOption) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	httpClient := google.NewHTTPClient(ctx, google.GetOAuthConfig().TokenSource(ctx, token))
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewClientWithService(svc, account), nil
}

// NewClientForAccount creates a new Calendar client using the file token store
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// ListEvents lists single events in a calendar within a time range, ordered by start time
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	raw, err := c.listRawEvents(ctx, calendarID, timeMin, timeMax, query)
	if err != nil {
		return nil, err
	}

	summaries := make([]EventSummary, 0, len(raw))
	for _, event := range raw {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

func (c *Client) listRawEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]*calendar.Event, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	var events []*calendar.Event
	err := call.Pages(ctx, func(page *calendar.Events) error {
		events = append(events, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
	}

	if input.AllDay {
		event.Start = &calendar.EventDateTime{Date: input.Start.Format(dateLayout)}
		event.End = &calendar.EventDateTime{Date: input.End.Format(dateLayout)}
	} else {
		if tz := input.Start.Location().String(); input.TimeZone == "" && tz != "Local" {
			input.TimeZone = tz
		}
		event.Start = &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		}
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(calendarID, event)
	if len(input.Attendees) > 0 {
		call = call.SendUpdates("all")
	}
	if input.UseDefaultConferenceData {
		call = call.ConferenceDataVersion(1)
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("meet-%d", time.Now().UnixNano()),
			},
		}
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// RescheduleEvent moves an event to a new time range and notifies all guests.
// The event keeps its original time zone.
func (c *Client) RescheduleEvent(ctx context.Context, calendarID, eventID string, start, end time.Time) (*EventSummary, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("new start %s must be before new end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}
	if existing.Start == nil || existing.Start.DateTime == "" {
		return nil, ErrNoDateTime
	}

	patch := &calendar.Event{
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: existing.Start.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: existing.Start.TimeZone,
		},
	}
	if existing.End != nil && existing.End.TimeZone != "" {
		patch.End.TimeZone = existing.End.TimeZone
	}

	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule event: %w", err)
	}

	summary := toEventSummary(updated)
	return &summary, nil
}

// AddAttendees appends guests to an event and notifies all guests.
// Addresses already on the guest list are ignored.
func (c *Client) AddAttendees(ctx context.Context, calendarID, eventID string, emails []string) (*EventSummary, error) {
	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	seen := make(map[string]bool, len(existing.Attendees))
	for _, a := range existing.Attendees {
		seen[strings.ToLower(a.Email)] = true
	}

	attendees := existing.Attendees
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" || seen[strings.ToLower(email)] {
			continue
		}
		seen[strings.ToLower(email)] = true
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	patch := &calendar.Event{Attendees: attendees}
	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to add attendees: %w", err)
	}

	summary := toEventSummary(updated)
	return &summary, nil
}

// DeclineEvent sets the user's response on an event to declined.
// userEmail may be empty, in which case the attendee flagged as self is used.
func (c *Client) DeclineEvent(ctx context.Context, calendarID, eventID, userEmail, comment string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if !markDeclined(event, userEmail, comment) {
		return nil, ErrNotAttendee
	}

	return c.patchAttendees(ctx, calendarID, event)
}

// DeclineEventsInRange declines every event in the range that the user is
// invited to and has not declined yet. Failures are reported per event.
func (c *Client) DeclineEventsInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time, userEmail, comment string) ([]DeclineResult, error) {
	events, err := c.listRawEvents(ctx, calendarID, timeMin, timeMax, "")
	if err != nil {
		return nil, err
	}

	var results []DeclineResult
	for _, event := range events {
		if attendee := findAttendee(event, userEmail); attendee == nil || attendee.ResponseStatus == "declined" {
			continue
		}
		markDeclined(event, userEmail, comment)

		result := DeclineResult{EventID: event.Id, Summary: event.Summary}
		result.Start, _ = parseEventDateTime(event.Start)
		result.End, _ = parseEventDateTime(event.End)
		if _, err := c.patchAttendees(ctx, calendarID, event); err != nil {
			result.Err = err
		}
		results = append(results, result)
	}
	return results, nil
}

func (c *Client) patchAttendees(ctx context.Context, calendarID string, event *calendar.Event) (*EventSummary, error) {
	patch := &calendar.Event{Attendees: event.Attendees}
	updated, err := c.svc.Events.Patch(calendarID, event.Id, patch).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update response: %w", err)
	}
	summary := toEventSummary(updated)
	return &summary, nil
}

func findAttendee(event *calendar.Event, userEmail string) *calendar.EventAttendee {
	for _, a := range event.Attendees {
		if matchesUser(a.Email, a.Self, userEmail) {
			return a
		}
	}
	return nil
}

func markDeclined(event *calendar.Event, userEmail, comment string) bool {
	attendee := findAttendee(event, userEmail)
	if attendee == nil {
		return false
	}
	if comment == "" {
		comment = DefaultDeclineComment
	}
	attendee.ResponseStatus = "declined"
	attendee.Comment = comment
	return true
}

func matchesUser(attendeeEmail string, self bool, userEmail string) bool {
	if userEmail != "" {
		return strings.EqualFold(attendeeEmail, userEmail)
	}
	return self
}

// ListCalendars lists all calendars accessible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	err := c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, entry := range page.Items {
			calendars = append(calendars, toCalendarInfo(entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// GetCalendar retrieves information about a specific calendar
func (c *Client) GetCalendar(ctx context.Context, calendarID string) (*CalendarInfo, error) {
	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	info := toCalendarInfo(entry)
	return &info, nil
}

// GetPrimaryCalendar retrieves information about the primary calendar
func (c *Client) GetPrimaryCalendar(ctx context.Context) (*CalendarInfo, error) {
	return c.GetCalendar(ctx, PrimaryCalendarID)
}

// Location returns the time zone of the primary calendar
func (c *Client) Location(ctx context.Context) (*time.Location, error) {
	info, err := c.GetPrimaryCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if info.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(info.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown calendar time zone %q: %w", info.TimeZone, err)
	}
	return loc, nil
}

// ListSettings returns the user's calendar settings keyed by setting ID
func (c *Client) ListSettings(ctx context.Context) (map[string]string, error) {
	settings := make(map[string]string)
	err := c.svc.Settings.List().Pages(ctx, func(page *calendar.Settings) error {
		for _, s := range page.Items {
			settings[s.Id] = s.Value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

// QueryFreeBusy checks availability for calendars in a time range.
// Results are ordered by calendar ID. Busy ranges that fail to parse are skipped.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	infos := make([]FreeBusyInfo, 0, len(result.Calendars))
	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{Calendar: calID}

		for _, busy := range cal.Busy {
			start, startErr := time.Parse(time.RFC3339, busy.Start)
			end, endErr := time.Parse(time.RFC3339, busy.End)
			if startErr != nil || endErr != nil {
				continue
			}
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}

		for _, e := range cal.Errors {
			info.Errors = append(info.Errors, e.Reason)
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Calendar < infos[j].Calendar })
	return infos, nil
}
