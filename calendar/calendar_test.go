package calendar

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"weddingplanner/api/apitest"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
)

type fakeStore struct {
	events  map[string]*models.CalendarEvent
	changes payload.Changes
}

func (f *fakeStore) List(context.Context) ([]models.CalendarEvent, error) {
	out := []models.CalendarEvent{}
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.CalendarEvent, error) {
	if e, ok := f.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, e *models.CalendarEvent) error {
	f.events[e.ID] = e
	return nil
}

func (f *fakeStore) Update(_ context.Context, _ string, changes payload.Changes) error {
	f.changes = changes
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	_, ok := f.events[id]
	delete(f.events, id)
	return ok, nil
}

func ceremony() *models.CalendarEvent {
	return &models.CalendarEvent{
		ID:        "ceremony",
		Start:     time.Date(2027, 6, 12, 14, 0, 0, 0, time.UTC),
		End:       time.Date(2027, 6, 12, 15, 0, 0, 0, time.UTC),
		Summary:   "Ceremony",
		Organizer: models.Organizer{Name: "Jane", Email: "jane@example.com"},
		Location:  models.Location{Title: "St Mary's", Address: "1 Church Lane"},
	}
}

func TestFeedRoundTrip(t *testing.T) {
	e := ceremony()
	e.Location.Geo = &models.Geo{Lat: 51.5, Lon: -0.12}
	doc := Feed{ProductID: "-//Jack & Jane//Wedding//EN", Name: "Wedding"}.Build([]models.CalendarEvent{*e}, time.Now()).Serialize()

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if p := events[0].GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Ceremony" {
		t.Fatalf("summary %+v", p)
	}
	start, err := events[0].GetStartAt()
	if err != nil || !start.Equal(e.Start) {
		t.Fatalf("start %v %v", start, err)
	}
	if !strings.Contains(doc, "mailto:jane@example.com") {
		t.Fatalf("organizer missing:\n%s", doc)
	}
}

func TestReduceCalendarEvent(t *testing.T) {
	decode := func(body string) payload.Object {
		obj, err := payload.Decode(strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		return obj
	}
	tests := []struct {
		name string
		body string
		want string
	}{
		{"summary type", `{"summary":1}`, `"summary" must be a string.`},
		{"all day type", `{"allDay":"yes"}`, `"allDay" must be a boolean.`},
		{"bad date", `{"start":"tomorrow"}`, `"start" must be a valid Date.`},
		{"end before start", `{"end":"2027-06-12T13:00:00Z"}`, `"end" contained an invalid value`},
		{"bad email", `{"organizer":{"name":"Jane","email":"jane"}}`, `"organizer.email" contained an invalid value`},
		{"organizer name", `{"organizer":{"email":"jane@example.com"}}`, `"organizer.name" must be a string.`},
		{"radius", `{"location":{"title":"Hall","radius":-1}}`, `"location.radius" contained an invalid value`},
		{"latitude", `{"location":{"title":"Hall","geo":{"lat":91,"lon":0}}}`, `"location.geo.lat" contained an invalid value`},
		{"timezone", `{"timezone":"Mars/Olympus"}`, `"timezone" contained an invalid value`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Reduce(ceremony(), decode(tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v want %q", err, tt.want)
			}
		})
	}

	updated, changes, err := Reduce(ceremony(), decode(`{"summary":"Ceremony","location":{"title":"Hall","geo":{"lat":51.5,"lon":-0.1}},"end":"2027-06-12T16:00:00Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(changes.Names(), ","); got != "end,location" {
		t.Fatalf("changes %s", got)
	}
	if updated.Location.Geo == nil || updated.Location.Geo.Lat != 51.5 {
		t.Fatalf("location %+v", updated.Location)
	}
}

func TestCalendarEndpoints(t *testing.T) {
	store := &fakeStore{events: map[string]*models.CalendarEvent{"ceremony": ceremony()}}
	router := apitest.Router(t, &Handler{Events: store, Feed: Feed{Name: "Wedding"}})

	rec := apitest.Do(t, router, apitest.Anonymous, http.MethodGet, "/api/calendar.ics", "")
	apitest.Expect(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "BEGIN:VEVENT") {
		t.Fatalf("no events in feed:\n%s", rec.Body.String())
	}

	rec = apitest.Do(t, router, apitest.Guest("alice"), http.MethodGet, "/api/calendar", "")
	apitest.Expect(t, rec, http.StatusUnauthorized)

	body := `{"summary":"Reception","start":"2027-06-12T18:00:00Z","end":"2027-06-12T23:00:00Z","organizer":{"name":"Jane","email":"jane@example.com"},"location":{"title":"Hall"}}`
	rec = apitest.Do(t, router, apitest.Admin, http.MethodPost, "/api/calendar", body)
	apitest.Expect(t, rec, http.StatusOK)

	body = `{"summary":"Reception","start":"2027-06-12T18:00:00Z","end":"2027-06-12T17:00:00Z","organizer":{"name":"Jane","email":"jane@example.com"},"location":{"title":"Hall"}}`
	rec = apitest.Do(t, router, apitest.Admin, http.MethodPost, "/api/calendar", body)
	apitest.Expect(t, rec, http.StatusBadRequest)

	rec = apitest.Do(t, router, apitest.Admin, http.MethodPut, "/api/calendar/ceremony", `{"description":"Bring tissues"}`)
	apitest.Expect(t, rec, http.StatusNoContent)
	if store.changes["description"] != "Bring tissues" {
		t.Fatalf("changes %v", store.changes)
	}

	rec = apitest.Do(t, router, apitest.Admin, http.MethodDelete, "/api/calendar/missing", "")
	apitest.Expect(t, rec, http.StatusBadRequest)
}
