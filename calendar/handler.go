// Package calendar serves wedding calendar events and the public ICS feed.
package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/utils"
)

type Store interface {
	List(ctx context.Context) ([]models.CalendarEvent, error)
	Get(ctx context.Context, id string) (*models.CalendarEvent, error)
	Insert(ctx context.Context, e *models.CalendarEvent) error
	Update(ctx context.Context, id string, changes payload.Changes) error
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	Events Store
	Feed   Feed
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "calendar.ics", Auth: api.Public, Action: h.download},
		{Path: "calendar", Auth: api.AdminAuth, Action: h.list},
		{Path: "calendar", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.create},
		{Path: "calendar/:calendarEventId", Auth: api.AdminAuth, Action: h.get},
		{Path: "calendar/:calendarEventId", Method: http.MethodPut, Auth: api.AdminAuth, Action: h.update},
		{Path: "calendar/:calendarEventId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.remove},
	}
}

func (h *Handler) download(w http.ResponseWriter, r *api.Request) error {
	events, err := h.Events.List(r.Context())
	if err != nil {
		return err
	}
	doc := h.Feed.Build(events, time.Now()).Serialize()
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write([]byte(doc))
	return err
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	events, err := h.Events.List(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, events)
}

func (h *Handler) get(w http.ResponseWriter, r *api.Request) error {
	e, err := h.Events.Get(r.Context(), r.Params.ByName("calendarEventId"))
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	return api.OK(w, e)
}

type createRequest struct {
	AllDay      bool             `json:"allDay"`
	Description string           `json:"description"`
	Start       time.Time        `json:"start" validate:"required"`
	End         time.Time        `json:"end" validate:"required,gtefield=Start"`
	Organizer   models.Organizer `json:"organizer"`
	Location    models.Location  `json:"location"`
	Summary     string           `json:"summary" validate:"required"`
	Timezone    string           `json:"timezone" validate:"omitempty,timezone"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	e := &models.CalendarEvent{
		ID:          utils.GetUUID(),
		Created:     time.Now(),
		AllDay:      body.AllDay,
		Description: body.Description,
		Start:       body.Start,
		End:         body.End,
		Organizer:   body.Organizer,
		Location:    body.Location,
		Summary:     body.Summary,
		Timezone:    body.Timezone,
	}
	if err := Verify(e); err != nil {
		return &payload.Error{Message: "Calendar event could not be encoded: " + err.Error()}
	}
	r.Log.Info().Str("event", e.ID).Str("summary", e.Summary).Msg("creating calendar event")
	if err := h.Events.Insert(r.Context(), e); err != nil {
		return err
	}
	return api.OK(w, e)
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	id := r.Params.ByName("calendarEventId")
	existing, err := h.Events.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	updated, changes, err := Reduce(existing, body)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		r.Log.Info().Str("event", id).Str("summary", updated.Summary).Strs("fields", changes.Names()).Msg("updating calendar event")
		if err := h.Events.Update(r.Context(), id, changes); err != nil {
			return err
		}
	}
	return api.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *api.Request) error {
	id := r.Params.ByName("calendarEventId")
	found, err := h.Events.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return payload.Invalid("calendarEventId", "")
	}
	r.Log.Info().Str("event", id).Msg("removed calendar event")
	return api.NoContent(w)
}
