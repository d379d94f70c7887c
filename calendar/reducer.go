package calendar

import (
	"time"

	"github.com/goccy/go-json"

	"weddingplanner/models"
	"weddingplanner/payload"
)

// Reduce merges p into a copy of existing, checks that the result still
// renders as a calendar entry, and reports the changed fields.
func Reduce(existing *models.CalendarEvent, p payload.Object) (*models.CalendarEvent, payload.Changes, error) {
	updated := *existing
	changes := payload.Changes{}

	for _, f := range []struct {
		prop string
		dst  *string
	}{{"summary", &updated.Summary}, {"description", &updated.Description}, {"timezone", &updated.Timezone}} {
		raw, ok := p[f.prop]
		if !ok {
			continue
		}
		v, err := payload.String(raw, f.prop)
		if err != nil {
			return nil, nil, err
		}
		*f.dst = v
	}
	if updated.Timezone != "" {
		if _, err := time.LoadLocation(updated.Timezone); err != nil {
			return nil, nil, payload.Invalid("timezone", "Unknown time zone: %s", updated.Timezone)
		}
	}
	if raw, ok := p["allDay"]; ok {
		v, err := payload.Bool(raw, "allDay")
		if err != nil {
			return nil, nil, err
		}
		updated.AllDay = v
	}
	for _, f := range []struct {
		prop string
		dst  *time.Time
	}{{"start", &updated.Start}, {"end", &updated.End}} {
		raw, ok := p[f.prop]
		if !ok {
			continue
		}
		t, err := parseDate(raw, f.prop)
		if err != nil {
			return nil, nil, err
		}
		*f.dst = t
	}
	if updated.End.Before(updated.Start) {
		return nil, nil, payload.Invalid("end", "End must not be before start")
	}
	if raw, ok := p["organizer"]; ok {
		org, err := parseOrganizer(raw)
		if err != nil {
			return nil, nil, err
		}
		updated.Organizer = org
	}
	if raw, ok := p["location"]; ok {
		loc, err := parseLocation(raw)
		if err != nil {
			return nil, nil, err
		}
		updated.Location = loc
	}

	if err := Verify(&updated); err != nil {
		return nil, nil, &payload.Error{Message: "Calendar event could not be encoded: " + err.Error()}
	}

	if updated.Summary != existing.Summary {
		changes["summary"] = updated.Summary
	}
	if updated.Description != existing.Description {
		changes["description"] = updated.Description
	}
	if updated.Timezone != existing.Timezone {
		changes["timezone"] = updated.Timezone
	}
	if updated.AllDay != existing.AllDay {
		changes["allDay"] = updated.AllDay
	}
	if !updated.Start.Equal(existing.Start) {
		changes["start"] = updated.Start
	}
	if !updated.End.Equal(existing.End) {
		changes["end"] = updated.End
	}
	if updated.Organizer != existing.Organizer {
		changes["organizer"] = updated.Organizer
	}
	if !sameLocation(updated.Location, existing.Location) {
		changes["location"] = updated.Location
	}
	return &updated, changes, nil
}

func parseDate(raw json.RawMessage, field string) (time.Time, error) {
	s, err := payload.String(raw, field)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, payload.MustBe(field, "valid Date")
	}
	return t, nil
}

func parseOrganizer(raw json.RawMessage) (models.Organizer, error) {
	var org models.Organizer
	obj, err := payload.Parse(raw, "organizer")
	if err != nil {
		return org, err
	}
	if org.Name, err = payload.String(obj["name"], "organizer.name"); err != nil {
		return org, err
	}
	if org.Email, err = payload.String(obj["email"], "organizer.email"); err != nil {
		return org, err
	}
	if err := payload.Var("organizer.email", org.Email, "required,email"); err != nil {
		return org, err
	}
	return org, nil
}

func parseLocation(raw json.RawMessage) (models.Location, error) {
	var loc models.Location
	obj, err := payload.Parse(raw, "location")
	if err != nil {
		return loc, err
	}
	if loc.Title, err = payload.String(obj["title"], "location.title"); err != nil {
		return loc, err
	}
	if v, ok := obj["address"]; ok {
		if loc.Address, err = payload.String(v, "location.address"); err != nil {
			return loc, err
		}
	}
	if v, ok := obj["radius"]; ok {
		r, err := payload.Number(v, "location.radius")
		if err != nil {
			return loc, err
		}
		if r < 0 {
			return loc, payload.Invalid("location.radius", "Radius must be a positive number")
		}
		loc.Radius = &r
	}
	if v, ok := obj["geo"]; ok {
		geo, err := payload.Parse(v, "location.geo")
		if err != nil {
			return loc, err
		}
		var g models.Geo
		if g.Lat, err = payload.Number(geo["lat"], "location.geo.lat"); err != nil {
			return loc, err
		}
		if g.Lon, err = payload.Number(geo["lon"], "location.geo.lon"); err != nil {
			return loc, err
		}
		if err := payload.Var("location.geo.lat", g.Lat, "latitude"); err != nil {
			return loc, err
		}
		if err := payload.Var("location.geo.lon", g.Lon, "longitude"); err != nil {
			return loc, err
		}
		loc.Geo = &g
	}
	return loc, nil
}

func sameLocation(a, b models.Location) bool {
	if a.Title != b.Title || a.Address != b.Address {
		return false
	}
	if (a.Radius == nil) != (b.Radius == nil) || (a.Radius != nil && *a.Radius != *b.Radius) {
		return false
	}
	if (a.Geo == nil) != (b.Geo == nil) || (a.Geo != nil && *a.Geo != *b.Geo) {
		return false
	}
	return true
}
