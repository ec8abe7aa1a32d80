// Package calendartest serves an in-memory subset of the Google Calendar v3
// and OAuth2 userinfo APIs for tests.
package calendartest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Server is a fake Calendar API. Configure it before issuing requests;
// read back recorded writes with the accessor methods.
type Server struct {
	// TimeZone of the primary calendar.
	TimeZone string
	// Email of the authenticated user, served by the userinfo endpoint.
	Email string

	mu       sync.Mutex
	events   map[string]*calendar.Event
	busy     map[string][]*calendar.TimePeriod
	patches  []string
	sendAll  []string
	inserted []*calendar.Event

	srv *httptest.Server
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		TimeZone: "America/Los_Angeles",
		Email:    "jane@example.com",
		events:   map[string]*calendar.Event{},
		busy:     map[string][]*calendar.TimePeriod{},
	}
	s.srv = httptest.NewServer(s.handler())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the base URL of the fake API.
func (s *Server) URL() string {
	return s.srv.URL
}

// ClientOptions point a Google API client at the fake without credentials.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.srv.URL + "/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(s.srv.Client()),
	}
}

// EndpointOptions point a client at the fake but keep its own authentication,
// for code that builds authenticated HTTP clients itself.
func (s *Server) EndpointOptions() []option.ClientOption {
	return []option.ClientOption{option.WithEndpoint(s.srv.URL + "/")}
}

// Service returns a Calendar service talking to the fake.
func (s *Server) Service(t testing.TB) *calendar.Service {
	t.Helper()
	svc, err := calendar.NewService(context.Background(), s.ClientOptions()...)
	if err != nil {
		t.Fatalf("failed to create calendar service: %v", err)
	}
	return svc
}

// AddEvent stores an event on the primary calendar.
func (s *Server) AddEvent(e *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.Id] = e
}

// Event returns the stored event, or nil.
func (s *Server) Event(id string) *calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

// SetBusy sets the free/busy periods reported for a calendar. Calendars
// without busy periods are reported with a notFound error.
func (s *Server) SetBusy(calendarID string, periods ...*calendar.TimePeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if periods == nil {
		periods = []*calendar.TimePeriod{}
	}
	s.busy[calendarID] = periods
}

// Patches lists the IDs of patched events in request order.
func (s *Server) Patches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.patches...)
}

// NotifiedPatches lists the IDs of patches sent with sendUpdates=all.
func (s *Server) NotifiedPatches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sendAll...)
}

// Inserted lists the inserted events.
func (s *Server) Inserted() []*calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*calendar.Event(nil), s.inserted...)
}

// Meeting builds a timed event in the America/Los_Angeles zone.
func Meeting(id, start, end string, attendees ...*calendar.EventAttendee) *calendar.Event {
	return &calendar.Event{
		Id:        id,
		Summary:   "Meeting " + id,
		Status:    "confirmed",
		Start:     &calendar.EventDateTime{DateTime: start, TimeZone: "America/Los_Angeles"},
		End:       &calendar.EventDateTime{DateTime: end, TimeZone: "America/Los_Angeles"},
		Attendees: attendees,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
}

func eventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, err == nil
	}
	if dt.Date != "" {
		t, err := time.Parse("2006-01-02", dt.Date)
		return t, err == nil
	}
	return time.Time{}, false
}

// inWindow applies the timeMin/timeMax filter of events.list. Events
// without parseable times are always listed.
func inWindow(e *calendar.Event, min, max time.Time) bool {
	start, okStart := eventTime(e.Start)
	end, okEnd := eventTime(e.End)
	if !okStart || !okEnd {
		return true
	}
	if !max.IsZero() && !start.Before(max) {
		return false
	}
	if !min.IsZero() && !end.After(min) {
		return false
	}
	return true
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	primary := func() *calendar.CalendarListEntry {
		return &calendar.CalendarListEntry{Id: s.Email, Primary: true, TimeZone: s.TimeZone, Summary: "Jane", AccessRole: "owner"}
	}

	mux.HandleFunc("GET /users/me/calendarList/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, primary())
	})

	mux.HandleFunc("GET /users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			primary(),
			{Id: "team@example.com", TimeZone: "UTC", AccessRole: "reader", Summary: "Team"},
		}})
	})

	mux.HandleFunc("GET /users/me/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &calendar.Settings{Items: []*calendar.Setting{
			{Id: "timezone", Value: s.TimeZone},
			{Id: "weekStart", Value: "1"},
		}})
	})

	mux.HandleFunc("GET /oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"email": s.Email, "name": "Jane Doe", "verified_email": true})
	})

	mux.HandleFunc("GET /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		min, _ := time.Parse(time.RFC3339, r.URL.Query().Get("timeMin"))
		max, _ := time.Parse(time.RFC3339, r.URL.Query().Get("timeMax"))

		s.mu.Lock()
		defer s.mu.Unlock()
		items := make([]*calendar.Event, 0, len(s.events))
		for _, e := range s.events {
			if inWindow(e, min, max) {
				items = append(items, e)
			}
		}
		sort.Slice(items, func(i, j int) bool {
			a, _ := eventTime(items[i].Start)
			b, _ := eventTime(items[j].Start)
			if !a.Equal(b) {
				return a.Before(b)
			}
			return items[i].Id < items[j].Id
		})
		writeJSON(w, &calendar.Events{Items: items})
	})

	mux.HandleFunc("GET /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		e, ok := s.events[r.PathValue("id")]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, e)
	})

	mux.HandleFunc("PATCH /calendars/{cal}/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id := r.PathValue("id")
		e, ok := s.events[id]
		if !ok {
			notFound(w)
			return
		}
		var patch calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if patch.Start != nil {
			e.Start = patch.Start
		}
		if patch.End != nil {
			e.End = patch.End
		}
		if patch.Attendees != nil {
			e.Attendees = patch.Attendees
		}
		s.patches = append(s.patches, id)
		if r.URL.Query().Get("sendUpdates") == "all" {
			s.sendAll = append(s.sendAll, id)
		}
		writeJSON(w, e)
	})

	mux.HandleFunc("POST /calendars/{cal}/events", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var e calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		e.Id = "created"
		e.HtmlLink = "https://calendar.google.com/event?eid=created"
		s.inserted = append(s.inserted, &e)
		writeJSON(w, &e)
	})

	mux.HandleFunc("POST /freeBusy", func(w http.ResponseWriter, r *http.Request) {
		var req calendar.FreeBusyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		resp := &calendar.FreeBusyResponse{Calendars: map[string]calendar.FreeBusyCalendar{}}
		for _, item := range req.Items {
			periods, ok := s.busy[item.Id]
			cal := calendar.FreeBusyCalendar{Busy: periods}
			if !ok {
				cal.Errors = []*calendar.Error{{Domain: "global", Reason: "notFound"}}
			}
			resp.Calendars[item.Id] = cal
		}
		writeJSON(w, resp)
	})

	return mux
}
