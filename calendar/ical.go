package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"weddingplanner/models"
)

// Feed describes the published calendar.
type Feed struct {
	ProductID string
	Name      string
	Source    string
}

// Build renders events into a calendar document.
func (f Feed) Build(events []models.CalendarEvent, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if f.ProductID != "" {
		cal.SetProductId(f.ProductID)
	}
	if f.Name != "" {
		cal.SetName(f.Name)
		cal.SetXWRCalName(f.Name)
	}
	if f.Source != "" {
		cal.SetUrl(f.Source)
	}
	for i := range events {
		addEvent(cal, &events[i], now)
	}
	return cal
}

func addEvent(cal *ical.Calendar, e *models.CalendarEvent, now time.Time) {
	ev := cal.AddEvent(e.ID)
	ev.SetDtStampTime(now)
	if !e.Created.IsZero() {
		ev.SetCreatedTime(e.Created)
	}
	if !e.Updated.IsZero() {
		ev.SetModifiedAt(e.Updated)
	}

	start, end := e.Start, e.End
	if loc := location(e.Timezone); loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	if e.AllDay {
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(end)
	} else {
		ev.SetStartAt(start)
		ev.SetEndAt(end)
	}

	ev.SetSummary(e.Summary)
	if e.Description != "" {
		ev.SetDescription(e.Description)
	}
	if e.Organizer.Email != "" {
		ev.SetOrganizer("mailto:"+e.Organizer.Email, ical.WithCN(e.Organizer.Name))
	}
	if loc := locationText(e.Location); loc != "" {
		ev.SetLocation(loc)
	}
	if g := e.Location.Geo; g != nil {
		ev.SetGeo(g.Lat, g.Lon)
	}
}

func location(tz string) *time.Location {
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil
	}
	return loc
}

func locationText(l models.Location) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{l.Title, l.Address} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Verify renders e and parses the result back, reporting anything the
// generator or parser rejects.
func Verify(e *models.CalendarEvent) error {
	doc := Feed{}.Build([]models.CalendarEvent{*e}, time.Now()).Serialize()
	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return err
	}
	events := cal.Events()
	if len(events) != 1 {
		return fmt.Errorf("expected 1 event, found %d", len(events))
	}
	uid := events[0].GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value != e.ID {
		return fmt.Errorf("event id did not survive encoding")
	}
	return nil
}
