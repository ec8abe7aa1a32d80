package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/julian/internal/calendar/calendartest"
)

func newTestClient(t *testing.T, api *calendartest.Server) *Client {
	t.Helper()
	return NewClientWithService(api.Service(t), "default")
}

// testDay is 2025-12-09 in America/Los_Angeles.
func testDay(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	start := time.Date(2025, 12, 9, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func TestToEventSummary(t *testing.T) {
	t.Run("nil event", func(t *testing.T) {
		assert.Equal(t, EventSummary{}, toEventSummary(nil))
	})

	t.Run("timed event", func(t *testing.T) {
		e := calendartest.Meeting("e1", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00",
			&calendar.EventAttendee{Email: "jane@example.com", ResponseStatus: "accepted", Self: true})
		e.ConferenceData = &calendar.ConferenceData{EntryPoints: []*calendar.EntryPoint{
			{EntryPointType: "phone", Uri: "tel:+1"},
			{EntryPointType: "video", Uri: "https://meet.google.com/abc"},
		}}

		s := toEventSummary(e)
		assert.False(t, s.AllDay)
		assert.True(t, s.Start.Equal(time.Date(2025, 12, 9, 18, 0, 0, 0, time.UTC)))
		assert.Equal(t, "https://meet.google.com/abc", s.MeetLink)
		require.Len(t, s.Attendees, 1)
		assert.True(t, s.Attendees[0].Self)
	})

	t.Run("all-day event", func(t *testing.T) {
		s := toEventSummary(&calendar.Event{
			Start: &calendar.EventDateTime{Date: "2025-12-09"},
			End:   &calendar.EventDateTime{Date: "2025-12-10"},
		})
		assert.True(t, s.AllDay)
		assert.Equal(t, 24*time.Hour, s.End.Sub(s.Start))
	})

	t.Run("shown as free", func(t *testing.T) {
		e := calendartest.Meeting("e2", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00")
		assert.False(t, toEventSummary(e).Transparent)

		e.Transparency = "transparent"
		assert.True(t, toEventSummary(e).Transparent)
	})

	t.Run("malformed times", func(t *testing.T) {
		s := toEventSummary(&calendar.Event{Start: &calendar.EventDateTime{DateTime: "soon"}})
		assert.True(t, s.Start.IsZero())
		assert.True(t, s.End.IsZero())
	})
}

func TestToCalendarInfo(t *testing.T) {
	assert.Equal(t, CalendarInfo{}, toCalendarInfo(nil))
	info := toCalendarInfo(&calendar.CalendarListEntry{Id: "x", Primary: true, TimeZone: "UTC"})
	assert.Equal(t, CalendarInfo{ID: "x", Primary: true, TimeZone: "UTC"}, info)
}

func TestEventSummary_Self(t *testing.T) {
	s := EventSummary{Attendees: []AttendeeInfo{
		{Email: "bob@example.com"},
		{Email: "Jane@Example.com", Self: true},
	}}

	a, ok := s.Self("jane@example.com")
	require.True(t, ok)
	assert.Equal(t, "Jane@Example.com", a.Email)

	_, ok = s.Self("carol@example.com")
	assert.False(t, ok)

	a, ok = s.Self("")
	require.True(t, ok)
	assert.True(t, a.Self)
}

func TestClient_Location(t *testing.T) {
	client := newTestClient(t, calendartest.NewServer(t))

	loc, err := client.Location(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())
}

func TestClient_ListCalendarsAndSettings(t *testing.T) {
	client := newTestClient(t, calendartest.NewServer(t))
	ctx := context.Background()

	cals, err := client.ListCalendars(ctx)
	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.True(t, cals[0].Primary)

	settings, err := client.ListSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", settings["weekStart"])
}

func TestClient_ListEvents(t *testing.T) {
	api := calendartest.NewServer(t)
	api.AddEvent(calendartest.Meeting("e1", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00"))
	api.AddEvent(&calendar.Event{Id: "e2", Start: &calendar.EventDateTime{Date: "2025-12-09"}, End: &calendar.EventDateTime{Date: "2025-12-10"}})
	client := newTestClient(t, api)

	dayStart, dayEnd := testDay(t)
	events, err := client.ListEvents(context.Background(), PrimaryCalendarID, dayStart, dayEnd, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "e1", events[1].ID)
	assert.False(t, events[1].AllDay)
}

func TestClient_QueryFreeBusy(t *testing.T) {
	api := calendartest.NewServer(t)
	api.SetBusy("b@example.com", &calendar.TimePeriod{Start: "2025-12-15T14:00:00Z", End: "2025-12-15T15:00:00Z"})
	api.SetBusy("a@example.com",
		&calendar.TimePeriod{Start: "2025-12-15T10:00:00Z", End: "2025-12-15T11:00:00Z"},
		&calendar.TimePeriod{Start: "garbage", End: "2025-12-15T11:00:00Z"},
	)
	client := newTestClient(t, api)

	infos, err := client.QueryFreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour),
		[]string{"b@example.com", "a@example.com", "missing@example.com"})
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "a@example.com", infos[0].Calendar)
	require.Len(t, infos[0].Busy, 1)
	assert.True(t, infos[0].Busy[0].Start.Equal(time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "missing@example.com", infos[2].Calendar)
	assert.Equal(t, []string{"notFound"}, infos[2].Errors)
}

func TestClient_CreateEvent(t *testing.T) {
	api := calendartest.NewServer(t)
	client := newTestClient(t, api)
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	created, err := client.CreateEvent(context.Background(), PrimaryCalendarID, EventInput{
		Summary:   "Planning",
		Location:  "Room 1",
		Start:     time.Date(2025, 12, 9, 10, 0, 0, 0, loc),
		End:       time.Date(2025, 12, 9, 11, 0, 0, 0, loc),
		Attendees: []string{"bob@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "created", created.ID)
	assert.NotEmpty(t, created.HTMLLink)

	inserted := api.Inserted()
	require.Len(t, inserted, 1)
	assert.Equal(t, "America/Los_Angeles", inserted[0].Start.TimeZone)
	assert.Equal(t, "2025-12-09T10:00:00-08:00", inserted[0].Start.DateTime)
	require.Len(t, inserted[0].Attendees, 1)
}

func TestClient_RescheduleEvent(t *testing.T) {
	api := calendartest.NewServer(t)
	api.AddEvent(calendartest.Meeting("e1", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00"))
	api.AddEvent(&calendar.Event{Id: "e2", Start: &calendar.EventDateTime{Date: "2025-12-09"}})
	client := newTestClient(t, api)
	ctx := context.Background()

	start := time.Date(2025, 12, 10, 22, 0, 0, 0, time.UTC)
	updated, err := client.RescheduleEvent(ctx, PrimaryCalendarID, "e1", start, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, updated.Start.Equal(start))
	assert.Equal(t, "America/Los_Angeles", api.Event("e1").Start.TimeZone)
	assert.Equal(t, []string{"e1"}, api.NotifiedPatches())

	_, err = client.RescheduleEvent(ctx, PrimaryCalendarID, "e1", start, start)
	assert.Error(t, err)

	_, err = client.RescheduleEvent(ctx, PrimaryCalendarID, "e2", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNoDateTime)

	_, err = client.RescheduleEvent(ctx, PrimaryCalendarID, "nope", start, start.Add(time.Hour))
	assert.Error(t, err)
}

func TestClient_AddAttendees(t *testing.T) {
	api := calendartest.NewServer(t)
	api.AddEvent(calendartest.Meeting("e1", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00",
		&calendar.EventAttendee{Email: "jane@example.com"}))
	client := newTestClient(t, api)

	updated, err := client.AddAttendees(context.Background(), PrimaryCalendarID, "e1",
		[]string{"bob@example.com", "JANE@example.com", " ", "bob@example.com"})
	require.NoError(t, err)

	var emails []string
	for _, a := range updated.Attendees {
		emails = append(emails, a.Email)
	}
	assert.Equal(t, []string{"jane@example.com", "bob@example.com"}, emails)
	assert.Equal(t, []string{"e1"}, api.NotifiedPatches())
}

func TestClient_DeclineEvent(t *testing.T) {
	api := calendartest.NewServer(t)
	api.AddEvent(calendartest.Meeting("e1", "2025-12-09T10:00:00-08:00", "2025-12-09T11:00:00-08:00",
		&calendar.EventAttendee{Email: "bob@example.com", ResponseStatus: "accepted"},
		&calendar.EventAttendee{Email: "jane@example.com", ResponseStatus: "accepted"}))
	api.AddEvent(calendartest.Meeting("e2", "2025-12-09T12:00:00-08:00", "2025-12-09T13:00:00-08:00",
		&calendar.EventAttendee{Email: "bob@example.com"}))
	client := newTestClient(t, api)
	ctx := context.Background()

	updated, err := client.DeclineEvent(ctx, PrimaryCalendarID, "e1", "jane@example.com", "")
	require.NoError(t, err)
	me, ok := updated.Self("jane@example.com")
	require.True(t, ok)
	assert.Equal(t, "declined", me.ResponseStatus)
	assert.Equal(t, DefaultDeclineComment, me.Comment)

	bob, _ := updated.Self("bob@example.com")
	assert.Equal(t, "accepted", bob.ResponseStatus)
	assert.Empty(t, api.NotifiedPatches())

	_, err = client.DeclineEvent(ctx, PrimaryCalendarID, "e2", "jane@example.com", "busy")
	assert.ErrorIs(t, err, ErrNotAttendee)
}

func TestClient_DeclineEventsInRange(t *testing.T) {
	api := calendartest.NewServer(t)
	api.AddEvent(calendartest.Meeting("e1", "2025-12-09T09:00:00-08:00", "2025-12-09T10:00:00-08:00",
		&calendar.EventAttendee{Email: "jane@example.com", Self: true, ResponseStatus: "accepted"}))
	api.AddEvent(calendartest.Meeting("e2", "2025-12-09T11:00:00-08:00", "2025-12-09T12:00:00-08:00",
		&calendar.EventAttendee{Email: "jane@example.com", Self: true, ResponseStatus: "declined"}))
	api.AddEvent(calendartest.Meeting("e3", "2025-12-09T13:00:00-08:00", "2025-12-09T14:00:00-08:00"))
	api.AddEvent(calendartest.Meeting("e4", "2025-12-09T15:00:00-08:00", "2025-12-09T16:00:00-08:00",
		&calendar.EventAttendee{Email: "jane@example.com", Self: true}))
	client := newTestClient(t, api)

	dayStart, dayEnd := testDay(t)
	results, err := client.DeclineEventsInRange(context.Background(), PrimaryCalendarID,
		dayStart, dayEnd, "", "Out sick")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "e1", results[0].EventID)
	assert.Equal(t, "e4", results[1].EventID)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.False(t, r.Start.IsZero())
	}
	assert.Equal(t, []string{"e1", "e4"}, api.Patches())
	assert.Equal(t, "Out sick", api.Event("e4").Attendees[0].Comment)
}

func TestNewClientForAccountWithProvider_NilProvider(t *testing.T) {
	_, err := NewClientForAccountWithProvider(context.Background(), "default", nil)
	assert.Error(t, err)
}
